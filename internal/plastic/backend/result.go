package backend

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// LineDelimiter is the line terminator cm uses on the current platform.
var LineDelimiter = lineDelimiterFor(runtime.GOOS)

func lineDelimiterFor(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Result is the outcome of one command sent through the shell. When Success
// is false, Output is empty and Errors holds everything the command printed.
type Result struct {
	Success bool
	Output  string
	Errors  string

	notRunning bool
}

// NotRunning is the result of a command issued while no session could be
// started.
func NotRunning(command string) Result {
	return Result{Errors: notRunningMessage(command), notRunning: true}
}

// Err returns nil for a successful result and the error text otherwise. A
// command issued without a live session wraps ErrShellNotRunning.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	msg := strings.Join(r.ErrorLines(), "; ")
	if r.notRunning {
		return fmt.Errorf("%w: %s", ErrShellNotRunning, msg)
	}
	if msg == "" {
		return errors.New("command failed")
	}
	return errors.New(msg)
}

// Lines splits the output into non-empty lines.
func (r Result) Lines() []string {
	return SplitLines(r.Output)
}

// ErrorLines splits the error text into non-empty lines.
func (r Result) ErrorLines() []string {
	return SplitLines(r.Errors)
}

// SplitLines splits s on LineDelimiter, dropping empty entries.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, LineDelimiter)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// buildCommandLine joins the command, its parameters and its quoted file
// arguments into one shell line, without the trailing newline.
func buildCommandLine(command string, params, files []string) string {
	var b strings.Builder
	b.WriteString(command)
	for _, p := range params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	for _, f := range files {
		b.WriteString(` "`)
		b.WriteString(f)
		b.WriteByte('"')
	}
	return b.String()
}
