package plastic

import "time"

// WorkspaceState is the state of one file as reported by cm.
type WorkspaceState uint8

const (
	StateUnknown WorkspaceState = iota
	StateControlled
	StateChanged
	StateCheckedOut
	StateCopied
	StateReplaced
	StateAdded
	StatePrivate
	StateIgnored
	StateDeleted
	StateMoved
	StateConflicted
	StateLockedByOther
)

var workspaceStateNames = [...]string{
	StateUnknown:       "Unknown",
	StateControlled:    "Controlled",
	StateChanged:       "Changed",
	StateCheckedOut:    "CheckedOut",
	StateCopied:        "Copied",
	StateReplaced:      "Replaced",
	StateAdded:         "Added",
	StatePrivate:       "Private",
	StateIgnored:       "Ignored",
	StateDeleted:       "Deleted",
	StateMoved:         "Moved",
	StateConflicted:    "Conflicted",
	StateLockedByOther: "LockedByOther",
}

func (s WorkspaceState) String() string {
	if int(s) < len(workspaceStateNames) {
		return workspaceStateNames[s]
	}
	return "Unknown"
}

// FileState is the observed state of one local file, keyed by its absolute
// path.
type FileState struct {
	Path           string
	WorkspaceState WorkspaceState

	LocalRevisionChangeset int
	DepotRevisionChangeset int
	LockedBy               string
	LockedWhere            string

	// PendingMergeBaseHash is carried through the cache untouched.
	PendingMergeBaseHash string
	ObservedAt           time.Time
}

func NewFileState(path string) FileState {
	return FileState{Path: path, WorkspaceState: StateUnknown}
}

func (f FileState) IsCheckedOut() bool {
	switch f.WorkspaceState {
	case StateCheckedOut, StateMoved, StateCopied, StateReplaced, StateConflicted:
		return true
	}
	return false
}

func (f FileState) IsAdded() bool   { return f.WorkspaceState == StateAdded }
func (f FileState) IsDeleted() bool { return f.WorkspaceState == StateDeleted }
func (f FileState) IsIgnored() bool { return f.WorkspaceState == StateIgnored }

func (f FileState) IsSourceControlled() bool {
	switch f.WorkspaceState {
	case StatePrivate, StateIgnored, StateUnknown:
		return false
	}
	return true
}

// IsModified reports local changes, whether or not the file is checked out.
func (f FileState) IsModified() bool {
	switch f.WorkspaceState {
	case StateChanged, StateCheckedOut, StateCopied, StateReplaced, StateAdded,
		StateDeleted, StateMoved, StateConflicted:
		return true
	}
	return false
}

// IsCurrent reports whether the local copy is at the head changeset.
func (f FileState) IsCurrent() bool {
	return f.LocalRevisionChangeset == f.DepotRevisionChangeset
}

func (f FileState) IsConflicted() bool    { return f.WorkspaceState == StateConflicted }
func (f FileState) IsLockedByOther() bool { return f.WorkspaceState == StateLockedByOther }

// LockOwner formats the lock holder as user@workspace, or "" when unlocked.
func (f FileState) LockOwner() string {
	switch {
	case f.LockedBy == "":
		return ""
	case f.LockedWhere == "":
		return f.LockedBy
	default:
		return f.LockedBy + "@" + f.LockedWhere
	}
}

// Revision is one entry of a file history. Revisions are not modified once
// parsed.
type Revision struct {
	Filename        string
	ChangesetNumber int
	RevisionNumber  int
	// Revision is the textual revision id.
	Revision    string
	Action      string
	Description string
	Author      string
	Date        time.Time
	RenamedFrom *RenamedFrom
}

// RenamedFrom points back to the path and revision a moved file came from.
type RenamedFrom struct {
	Filename       string
	RevisionNumber int
}

// History lists revisions of one file, oldest first.
type History []Revision

// RepositorySpec names the repository and server a workspace is bound to.
type RepositorySpec struct {
	Changeset      string
	RepositoryName string
	ServerURL      string
}

// Identity is who owns the local workspace. Locks held by anyone else are
// reported as StateLockedByOther.
type Identity struct {
	UserName      string
	WorkspaceName string
}
