package plastic

import (
	"context"
	"errors"
	"strings"

	"github.com/thiagokokada/plastic-go/internal/plastic/backend"
)

type fakeCall struct {
	command string
	params  []string
	files   []string
}

type fakeBackend struct {
	executeFunc func(command string, params, files []string) backend.Result
	dumpFunc    func(revSpec, destPath string) error

	calls  []fakeCall
	closed bool
}

func (f *fakeBackend) Execute(_ context.Context, command string, params, files []string) backend.Result {
	f.calls = append(f.calls, fakeCall{command: command, params: params, files: files})
	if f.executeFunc != nil {
		return f.executeFunc(command, params, files)
	}
	return backend.Result{Errors: "unexpected Execute call: " + command}
}

func (f *fakeBackend) DumpToFile(_ context.Context, revSpec, destPath string) error {
	if f.dumpFunc != nil {
		return f.dumpFunc(revSpec, destPath)
	}
	return errors.New("unexpected DumpToFile call")
}

func (f *fakeBackend) Close() { f.closed = true }

func (f *fakeBackend) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.command
	}
	return out
}

func okResult(lines ...string) backend.Result {
	return backend.Result{Success: true, Output: joinLines(lines)}
}

func failResult(lines ...string) backend.Result {
	return backend.Result{Errors: joinLines(lines)}
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, backend.LineDelimiter) + backend.LineDelimiter
}

// connectedService returns a service whose identity and repository are set
// through Connect, with later commands routed to next.
func connectedService(root string, next func(command string, params, files []string) backend.Result) (*Service, *fakeBackend) {
	fb := &fakeBackend{}
	fb.executeFunc = func(command string, params, files []string) backend.Result {
		switch {
		case command == "version":
			return okResult("5.4.16.719")
		case command == "whoami":
			return okResult("alice")
		case command == "getworkspacefrompath":
			return okResult("Workspace_1")
		case command == "status" && len(params) == 1 && params[0] == "--nochanges":
			return okResult("cs:41@rep:UE4PlasticPlugin@repserver:localhost:8087")
		case command == "status" && len(params) > 0 && params[0] == "--wkconfig":
			return okResult("/main")
		}
		if next != nil {
			return next(command, params, files)
		}
		return failResult("unexpected command " + command)
	}
	svc := NewWithBackend(fb, root)
	if err := svc.Connect(context.Background()); err != nil {
		panic(err)
	}
	fb.calls = nil
	return svc, fb
}
