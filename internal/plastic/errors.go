package plastic

import (
	"errors"
	"strings"
)

var (
	// ErrHistoryRecord means a "cm history" line was not a changeset;revid
	// pair.
	ErrHistoryRecord = errors.New("malformed cm history record")
	// ErrNoRepository means the workspace repository is unknown, so revision
	// specs cannot be built.
	ErrNoRepository = errors.New("workspace repository unknown")
)

// CommandOutcome is the result of an operation as shown to a user: a success
// flag plus informational and error lines.
type CommandOutcome struct {
	Success       bool
	InfoMessages  []string
	ErrorMessages []string
}

// RemoveRedundantErrors moves error lines containing filter to the info lines.
// If that leaves no errors at all, the failed command is considered a
// success.
func RemoveRedundantErrors(outcome *CommandOutcome, filter string) {
	if filter == "" {
		return
	}
	found := false
	kept := outcome.ErrorMessages[:0:0]
	for _, msg := range outcome.ErrorMessages {
		if strings.Contains(msg, filter) {
			outcome.InfoMessages = append(outcome.InfoMessages, msg)
			found = true
			continue
		}
		kept = append(kept, msg)
	}
	outcome.ErrorMessages = kept

	if found && len(outcome.ErrorMessages) == 0 && !outcome.Success {
		outcome.Success = true
	}
}
