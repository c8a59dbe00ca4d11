package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const helperEnv = "PLASTIC_GO_HELPER"

// TestHelperProcess is not a real test: it is the fake cm binary started by
// the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "shell":
		fakeShell()
	case "cat":
		fakeCat(args[2:])
	}
	os.Exit(2)
}

func fakeShell() {
	out := bufio.NewWriter(os.Stdout)
	result := func(code int) {
		fmt.Fprintf(out, "CommandResult %d%s", code, LineDelimiter)
		out.Flush()
	}
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		cmd, rest, _ := strings.Cut(in.Text(), " ")
		switch cmd {
		case "echo":
			for _, w := range strings.Fields(rest) {
				fmt.Fprint(out, w, LineDelimiter)
			}
			result(0)
		case "fail":
			fmt.Fprint(out, rest, LineDelimiter)
			result(1)
		case "chunked":
			for _, part := range []string{"line one" + LineDelimiter + "line two" + LineDelimiter + "Comm", "andRes", "ult ", "0", LineDelimiter} {
				fmt.Fprint(out, part)
				out.Flush()
				time.Sleep(15 * time.Millisecond)
			}
		case "slow":
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(out, "done", LineDelimiter)
			result(0)
		case "hang":
			time.Sleep(time.Minute)
		case "crash":
			fmt.Fprint(out, "boom", LineDelimiter)
			out.Flush()
			os.Exit(3)
		case "exit":
			os.Exit(0)
		default:
			fmt.Fprint(out, "unknown command", LineDelimiter)
			result(1)
		}
	}
	os.Exit(0)
}

func fakeCat(args []string) {
	if len(args) < 3 {
		os.Exit(2)
	}
	revSpec := args[0]
	dest := strings.TrimPrefix(args[2], "--file=")
	if revSpec == "bad" {
		fmt.Fprintln(os.Stderr, "The revision does not exist")
		os.Exit(1)
	}
	if err := os.WriteFile(dest, []byte("content of "+revSpec), 0o644); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func helperCommand(mode string, args ...string) *exec.Cmd {
	cmdArgs := append([]string{"-test.run=^TestHelperProcess$", "--", mode}, args...)
	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), helperEnv+"=1")
	return cmd
}

type testSettings struct {
	binary string
	dir    string
}

func (s testSettings) BinaryPath() string       { return s.binary }
func (s testSettings) WorkingDirectory() string { return s.dir }

// lockedBuffer collects log output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	buf := &lockedBuffer{}
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return buf
}

// useFakeShell swaps newShellCommand for the helper process and returns the
// number of launches so far.
func useFakeShell(t *testing.T) *atomic.Int32 {
	t.Helper()
	var launches atomic.Int32
	old := newShellCommand
	t.Cleanup(func() { newShellCommand = old })
	newShellCommand = func(binaryPath, workDir string) *exec.Cmd {
		launches.Add(1)
		cmd := helperCommand("shell")
		cmd.Dir = workDir
		return cmd
	}
	return &launches
}

func startTestShell(t *testing.T, opts Options) (*Shell, *atomic.Int32) {
	t.Helper()
	launches := useFakeShell(t)
	settings := testSettings{binary: "cm", dir: t.TempDir()}
	sh := NewShell(settings, opts)
	if err := sh.Launch(settings.binary, settings.dir); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	t.Cleanup(sh.Terminate)
	return sh, launches
}

func TestShell_LaunchIsIdempotent(t *testing.T) {
	sh, launches := startTestShell(t, Options{})

	if err := sh.Launch("cm", t.TempDir()); err != nil {
		t.Fatalf("second Launch: %v", err)
	}
	if got := launches.Load(); got != 1 {
		t.Fatalf("launches = %d, want 1", got)
	}
	if !sh.Alive() {
		t.Fatal("expected shell to be alive")
	}
}

func TestShell_ExecuteSuccess(t *testing.T) {
	sh, _ := startTestShell(t, Options{})

	lines, errLines, ok := sh.RunCommand(context.Background(), "echo", []string{"alpha", "beta"}, nil)
	if !ok {
		t.Fatalf("expected success, errors: %#v", errLines)
	}
	if len(lines) != 2 || lines[0] != "alpha" || lines[1] != "beta" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if len(errLines) != 0 {
		t.Fatalf("unexpected error lines: %#v", errLines)
	}
}

func TestShell_ExecuteFailureMovesOutputToErrors(t *testing.T) {
	sh, _ := startTestShell(t, Options{})

	res := sh.Execute(context.Background(), "fail", []string{"not", "a", "workspace"}, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Output != "" {
		t.Fatalf("output should be empty on failure, got %q", res.Output)
	}
	if got := res.ErrorLines(); len(got) != 1 || got[0] != "not a workspace" {
		t.Fatalf("unexpected errors: %#v", got)
	}
}

func TestShell_ExecuteChunkedResult(t *testing.T) {
	sh, _ := startTestShell(t, Options{})

	res := sh.Execute(context.Background(), "chunked", nil, nil)
	if !res.Success {
		t.Fatalf("expected success, errors: %q", res.Errors)
	}
	want := "line one" + LineDelimiter + "line two" + LineDelimiter
	if res.Output != want {
		t.Fatalf("output = %q, want %q", res.Output, want)
	}
}

func TestShell_ActivityTimeoutKeepsWaiting(t *testing.T) {
	logs := captureLogs(t)
	sh, _ := startTestShell(t, Options{
		ActivityTimeout: 50 * time.Millisecond,
		CheckInterval:   10 * time.Millisecond,
	})

	lines, _, ok := sh.RunCommand(context.Background(), "slow", nil, nil)
	if !ok {
		t.Fatal("slow command should still succeed after the activity timeout")
	}
	if len(lines) != 1 || lines[0] != "done" {
		t.Fatalf("unexpected lines: %#v", lines)
	}

	// The command is silent for several timeouts; each warning resets the
	// activity clock, so the warning repeats instead of firing once.
	warnings := strings.Count(logs.String(), `msg="cm shell command timeout"`)
	if warnings < 2 {
		t.Fatalf("expected repeated timeout warnings, got %d:\n%s", warnings, logs.String())
	}
	if !strings.Contains(logs.String(), "command=slow") {
		t.Fatalf("timeout warning should name the command:\n%s", logs.String())
	}
}

func TestShell_RestartReplacesProcess(t *testing.T) {
	sh, launches := startTestShell(t, Options{})
	old := sh.proc

	if err := sh.Restart("cm", t.TempDir()); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if got := launches.Load(); got != 2 {
		t.Fatalf("launches = %d, want 2", got)
	}
	if old.alive() {
		t.Fatalf("old process %d should be dead", old.pid())
	}
	if sh.proc == old || !sh.Alive() {
		t.Fatal("expected a new live process")
	}
	lines, _, ok := sh.RunCommand(context.Background(), "echo", []string{"again"}, nil)
	if !ok || len(lines) != 1 || lines[0] != "again" {
		t.Fatalf("unexpected result after restart: ok=%v lines=%#v", ok, lines)
	}
}

func TestShell_RestartsAfterCrash(t *testing.T) {
	sh, launches := startTestShell(t, Options{})

	res := sh.Execute(context.Background(), "crash", nil, nil)
	if res.Success {
		t.Fatal("crash should fail")
	}
	if !strings.Contains(res.Errors, "boom") {
		t.Fatalf("errors should carry the output, got %q", res.Errors)
	}
	if sh.Alive() {
		t.Fatal("shell should be dead after crash")
	}

	lines, _, ok := sh.RunCommand(context.Background(), "echo", []string{"back"}, nil)
	if !ok || len(lines) != 1 || lines[0] != "back" {
		t.Fatalf("unexpected result after restart: ok=%v lines=%#v", ok, lines)
	}
	if got := launches.Load(); got != 2 {
		t.Fatalf("launches = %d, want 2", got)
	}
}

func TestShell_CancelKillsAndNextCommandRestarts(t *testing.T) {
	sh, launches := startTestShell(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res := sh.Execute(ctx, "hang", nil, nil)
	if res.Success {
		t.Fatal("cancelled command should fail")
	}

	_, _, ok := sh.RunCommand(context.Background(), "echo", []string{"x"}, nil)
	if !ok {
		t.Fatal("expected success after restart")
	}
	if got := launches.Load(); got != 2 {
		t.Fatalf("launches = %d, want 2", got)
	}
}

func TestShell_NotRunning(t *testing.T) {
	useFakeShell(t)
	sh := NewShell(testSettings{binary: "cm", dir: t.TempDir()}, Options{})

	res := sh.Execute(context.Background(), "status", nil, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Errors != "status: Plastic SCM shell not running!" {
		t.Fatalf("unexpected errors: %q", res.Errors)
	}
	if err := res.Err(); !errors.Is(err, ErrShellNotRunning) {
		t.Fatalf("expected ErrShellNotRunning, got %v", err)
	}
}

func TestShell_TerminateStopsSession(t *testing.T) {
	sh, _ := startTestShell(t, Options{ExitWait: 2 * time.Second})

	sh.Terminate()
	if sh.Alive() {
		t.Fatal("expected shell to be stopped")
	}
	res := sh.Execute(context.Background(), "echo", []string{"x"}, nil)
	if res.Success || !strings.Contains(res.Errors, "not running") {
		t.Fatalf("unexpected result after terminate: %+v", res)
	}
}

func TestShell_LaunchFailure(t *testing.T) {
	old := newShellCommand
	t.Cleanup(func() { newShellCommand = old })
	newShellCommand = func(binaryPath, workDir string) *exec.Cmd {
		return exec.Command(binaryPath, "shell")
	}

	sh := NewShell(testSettings{}, Options{})
	err := sh.Launch("/nonexistent/plastic/cm", t.TempDir())
	if !errors.Is(err, ErrProcessUnavailable) {
		t.Fatalf("expected ErrProcessUnavailable, got %v", err)
	}
	if sh.Alive() {
		t.Fatal("shell should not be alive")
	}
}

func TestDumpToFile(t *testing.T) {
	old := newDumpCommand
	t.Cleanup(func() { newDumpCommand = old })
	newDumpCommand = func(ctx context.Context, binaryPath string, args ...string) *exec.Cmd {
		cmd := helperCommand(args[0], args[1:]...)
		return cmd
	}

	dest := t.TempDir() + "/dump.bin"
	if err := DumpToFile(context.Background(), "cm", "rev:file.txt#cs:3", dest); err != nil {
		t.Fatalf("DumpToFile: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if string(data) != "content of rev:file.txt#cs:3" {
		t.Fatalf("unexpected content: %q", data)
	}

	err = DumpToFile(context.Background(), "cm", "bad", t.TempDir()+"/x")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
