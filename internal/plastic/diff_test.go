package plastic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thiagokokada/plastic-go/internal/plastic/backend"
)

func TestDiffWithDepot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "Source", "main.cpp")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("one\ntwo changed\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, fb := connectedService(dir, func(command string, params, files []string) backend.Result {
		if command == "history" {
			return okResult("14;176", "18;223", "17;220")
		}
		return failResult("unexpected " + command)
	})
	var dumped string
	fb.dumpFunc = func(revSpec, destPath string) error {
		dumped = revSpec
		return os.WriteFile(destPath, []byte("one\ntwo\nthree\n"), 0o644)
	}

	out, err := svc.DiffWithDepot(context.Background(), file, 1)
	if err != nil {
		t.Fatalf("DiffWithDepot: %v", err)
	}
	if dumped != "revid:223@rep:UE4PlasticPlugin@repserver:localhost:8087" {
		t.Fatalf("unexpected revspec %q", dumped)
	}
	for _, want := range []string{"--- a/Source/main.cpp", "+++ b/Source/main.cpp", "-two\n", "+two changed\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff should contain %q:\n%s", want, out)
		}
	}
}

func TestDiffWithDepot_DumpFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := touch(t, filepath.Join(dir, "a.txt"))
	svc, fb := connectedService(dir, func(command string, params, files []string) backend.Result {
		return okResult("1;2")
	})
	fb.dumpFunc = func(revSpec, destPath string) error { return errors.New("cm cat failed") }

	if _, err := svc.DiffWithDepot(context.Background(), file, 3); err == nil || !strings.Contains(err.Error(), "cm cat failed") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	out, err := unifiedDiff("a.txt", "1", []byte("same\n"), []byte("same\n"), 3)
	if err != nil || out != "" {
		t.Fatalf("identical content: %q %v", out, err)
	}
	out, err = unifiedDiff("a.bin", "1", []byte{0, 1}, []byte{0, 2}, 3)
	if err != nil || out != "Binary files a.bin differ\n" {
		t.Fatalf("binary content: %q %v", out, err)
	}
}

func TestHeadRevisionID(t *testing.T) {
	t.Parallel()

	id, err := headRevisionID([]string{"14;176", "18;223", "17;220"})
	if err != nil || id != "223" {
		t.Fatalf("got %q %v", id, err)
	}
	if _, err := headRevisionID(nil); err == nil {
		t.Fatal("empty history should fail")
	}
}

func TestIsBinary(t *testing.T) {
	t.Parallel()

	if IsBinary([]byte("plain text\n")) {
		t.Fatal("text reported as binary")
	}
	if !IsBinary([]byte{'P', 'K', 3, 4, 0, 0}) {
		t.Fatal("NUL bytes should mark content as binary")
	}
}
