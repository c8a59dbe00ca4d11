package plastic

import (
	"sort"
	"sync"
)

// StateCache holds the last known state of every file queried during the
// process lifetime. Entries are created on first use and never removed.
type StateCache struct {
	mu     sync.Mutex
	states map[string]*FileState
}

func NewStateCache() *StateCache {
	return &StateCache{states: make(map[string]*FileState)}
}

func (c *StateCache) entryLocked(path string) *FileState {
	st, ok := c.states[path]
	if !ok {
		fs := NewFileState(path)
		st = &fs
		c.states[path] = st
	}
	return st
}

// Merge folds freshly observed states into the cache and returns how many
// entries changed. An entry only changes when its workspace state differs,
// so identical observations do not trigger a refresh.
func (c *StateCache) Merge(states []FileState) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated := 0
	for _, in := range states {
		st := c.entryLocked(in.Path)
		if st.WorkspaceState == in.WorkspaceState {
			continue
		}
		st.WorkspaceState = in.WorkspaceState
		st.PendingMergeBaseHash = in.PendingMergeBaseHash
		st.ObservedAt = in.ObservedAt
		updated++
	}
	return updated
}

// Get returns a copy of the cached state for path, creating an Unknown entry
// if the path was never seen.
func (c *StateCache) Get(path string) FileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.entryLocked(path)
}

// Snapshot returns copies of all entries sorted by path.
func (c *StateCache) Snapshot() []FileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FileState, 0, len(c.states))
	for _, st := range c.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (c *StateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}
