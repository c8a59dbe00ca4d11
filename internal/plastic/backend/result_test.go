package backend

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildCommandLine(t *testing.T) {
	t.Parallel()

	got := buildCommandLine("status", []string{"--nostatus", "--noheaders"}, []string{"/ws/a b.txt", "/ws/c.txt"})
	want := `status --nostatus --noheaders "/ws/a b.txt" "/ws/c.txt"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := buildCommandLine("whoami", nil, nil); got != "whoami" {
		t.Fatalf("got %q", got)
	}
}

func TestResultLines(t *testing.T) {
	t.Parallel()

	res := Result{
		Success: true,
		Output:  "one" + LineDelimiter + LineDelimiter + "two" + LineDelimiter,
	}
	if got, want := res.Lines(), []string{"one", "two"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %#v, want %#v", got, want)
	}
	if got := res.ErrorLines(); got != nil {
		t.Fatalf("ErrorLines = %#v, want nil", got)
	}
}

func TestLineDelimiterFor(t *testing.T) {
	t.Parallel()

	if lineDelimiterFor("windows") != "\r\n" {
		t.Fatal("windows delimiter")
	}
	if lineDelimiterFor("linux") != "\n" || lineDelimiterFor("darwin") != "\n" {
		t.Fatal("unix delimiter")
	}
}

func TestResultErr(t *testing.T) {
	t.Parallel()

	if err := (Result{Success: true, Output: "x"}).Err(); err != nil {
		t.Fatalf("success should have no error, got %v", err)
	}
	err := Result{Errors: "first" + LineDelimiter + "second" + LineDelimiter}.Err()
	if err == nil || err.Error() != "first; second" {
		t.Fatalf("unexpected error %v", err)
	}
	if errors.Is(err, ErrShellNotRunning) {
		t.Fatal("a failed command is not a missing shell")
	}
	if err := (Result{}).Err(); err == nil {
		t.Fatal("empty failure should still be an error")
	}
	err = NotRunning("status").Err()
	if !errors.Is(err, ErrShellNotRunning) || !strings.Contains(err.Error(), "status: Plastic SCM shell not running!") {
		t.Fatalf("unexpected not running error %v", err)
	}
}
