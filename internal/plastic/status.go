package plastic

import (
	"log/slog"
	"strings"
)

// statusParams makes "cm status" print one "<code> <path>" line per changed,
// private or ignored item and nothing for unchanged controlled files.
var statusParams = []string{"--nostatus", "--noheaders", "--all", "--ignored"}

var statusCodes = map[string]WorkspaceState{
	"CH": StateChanged,    // modified but not checked out
	"CO": StateCheckedOut, // checked out for modification
	"CP": StateCopied,
	"RP": StateReplaced,
	"AD": StateAdded,
	"PR": StatePrivate, // not controlled
	"IG": StateIgnored,
	"DE": StateDeleted,
	"LD": StateDeleted, // locally deleted, i.e. missing
	"MV": StateMoved,
	"LM": StateMoved, // locally moved
}

// conflictedMarker is printed by cm in place of a 2-letter code.
const conflictedMarker = "conflited"

// parseStatusLine maps one status line to a workspace state. Moves carry a
// "<percent>% <from> -> <to>" suffix, which is not needed here.
func parseStatusLine(line string) WorkspaceState {
	s := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(s, conflictedMarker) {
		return StateConflicted
	}
	code := s
	if len(code) > 2 {
		code = code[:2]
	}
	if state, ok := statusCodes[code]; ok {
		return state
	}
	slog.Warn("unknown cm status code", slog.String("line", line))
	return StateUnknown
}

// parseStatusResult derives a file state from the lines "cm status" returned
// for it. No line means a controlled, unchanged file. A file that is both
// checked out and renamed gets two lines: the last one wins.
func parseStatusResult(lines []string) WorkspaceState {
	if len(lines) == 0 {
		return StateControlled
	}
	return parseStatusLine(lines[len(lines)-1])
}
