package backend

import "errors"

var (
	// ErrProcessUnavailable means the cm binary could not be started. This is
	// expected when Plastic SCM is not installed.
	ErrProcessUnavailable = errors.New("cm shell unavailable")
	// ErrShellNotRunning means a command was issued without a live session.
	ErrShellNotRunning = errors.New("cm shell not running")
)

func notRunningMessage(command string) string {
	return command + ": Plastic SCM shell not running!"
}
