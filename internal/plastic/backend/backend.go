package backend

import (
	"context"
	"fmt"
)

// Backend abstracts access to a cm installation.
//
// The default implementation keeps a "cm shell" running, but the interface
// lets callers be tested without a Plastic SCM installation.
type Backend interface {
	// Execute runs one command. Failures are reported in the Result.
	Execute(ctx context.Context, command string, params, files []string) Result
	// DumpToFile writes the raw content of a revision spec to destPath.
	DumpToFile(ctx context.Context, revSpec, destPath string) error
	Close()
}

type shellBackend struct {
	shell      *Shell
	binaryPath string
}

// OpenShell launches "cm shell" in the directory from settings. The returned
// error wraps ErrProcessUnavailable when cm cannot be started.
func OpenShell(settings Settings, opts Options) (Backend, error) {
	sh := NewShell(settings, opts)
	if err := sh.Launch(settings.BinaryPath(), settings.WorkingDirectory()); err != nil {
		return nil, fmt.Errorf("open cm shell: %w", err)
	}
	return &shellBackend{shell: sh, binaryPath: settings.BinaryPath()}, nil
}

func (b *shellBackend) Execute(ctx context.Context, command string, params, files []string) Result {
	return b.shell.Execute(ctx, command, params, files)
}

func (b *shellBackend) DumpToFile(ctx context.Context, revSpec, destPath string) error {
	return DumpToFile(ctx, b.binaryPath, revSpec, destPath)
}

func (b *shellBackend) Close() {
	b.shell.Terminate()
}
