package plastic

import (
	"log/slog"
	"strconv"
	"strings"
)

var fileinfoParams = []string{`--format="{RevisionChangeset};{RevisionHeadChangeset};{LockedBy};{LockedWhere}"`}

// fileInfo is one line of "cm fileinfo" output, e.g. "17;17;alice;Workspace_2".
type fileInfo struct {
	RevisionChangeset     int
	RevisionHeadChangeset int
	LockedBy              string
	LockedWhere           string
}

// parseFileInfo parses a fileinfo line. Both changesets stay zero unless at
// least two fields are present; the lock fields are optional.
func parseFileInfo(line string) fileInfo {
	var info fileInfo
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return info
	}
	info.RevisionChangeset = atoi(fields[0])
	info.RevisionHeadChangeset = atoi(fields[1])
	if len(fields) >= 3 {
		info.LockedBy = fields[2]
	}
	if len(fields) >= 4 {
		info.LockedWhere = fields[3]
	}
	return info
}

// applyFileInfo copies revisions and lock owner into state, promoting it to
// StateLockedByOther when someone other than id holds the lock.
func applyFileInfo(state *FileState, info fileInfo, id Identity) {
	state.LocalRevisionChangeset = info.RevisionChangeset
	state.DepotRevisionChangeset = info.RevisionHeadChangeset
	state.LockedBy = info.LockedBy
	state.LockedWhere = info.LockedWhere

	if state.LockedBy != "" && (state.LockedBy != id.UserName || state.LockedWhere != id.WorkspaceName) {
		slog.Warn("file locked by other",
			slog.String("path", state.Path),
			slog.String("locked_by", state.LockedBy),
			slog.String("locked_where", state.LockedWhere),
			slog.String("user", id.UserName),
			slog.String("workspace", id.WorkspaceName),
		)
		state.WorkspaceState = StateLockedByOther
	}
	slog.Debug("cm fileinfo",
		slog.String("path", state.Path),
		slog.Int("local", state.LocalRevisionChangeset),
		slog.Int("head", state.DepotRevisionChangeset),
		slog.String("lock", state.LockOwner()),
	)
}

// atoi parses a leading integer like C atoi: garbage yields 0.
func atoi(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
