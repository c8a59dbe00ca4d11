package plastic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/thiagokokada/plastic-go/internal/logging"
	"github.com/thiagokokada/plastic-go/internal/plastic/backend"
)

// WorkspaceInfo describes the cm installation and the workspace, as read by
// Connect.
type WorkspaceInfo struct {
	Version    string
	Identity   Identity
	Repository RepositorySpec
	BranchName string
}

// Service runs cm operations for one workspace and keeps the file state
// cache up to date.
type Service struct {
	backend backend.Backend
	root    string
	cache   *StateCache
	now     func() time.Time

	// mu guards info, which the watcher reads while Connect may refresh it.
	mu   sync.RWMutex
	info WorkspaceInfo
}

// Open launches a cm shell in the settings' working directory and returns a
// service for that workspace. The settings are read again whenever the shell
// has to be restarted.
func Open(settings backend.Settings, opts backend.Options) (*Service, error) {
	b, err := backend.OpenShell(settings, opts)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(b, settings.WorkingDirectory()), nil
}

func NewWithBackend(b backend.Backend, root string) *Service {
	return &Service{
		backend: b,
		root:    root,
		cache:   NewStateCache(),
		now:     time.Now,
	}
}

func (s *Service) Close() {
	s.backend.Close()
}

func (s *Service) Root() string {
	return s.root
}

func (s *Service) Cache() *StateCache {
	return s.cache
}

func (s *Service) Info() WorkspaceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Connect reads the cm version, the current user, the workspace name, the
// repository spec and the branch name. The user and workspace are needed to
// detect locks held by others, the repository to resolve history.
func (s *Service) Connect(ctx context.Context) (err error) {
	done := logging.Op("connect", "root", s.root)
	defer func() { done(err) }()

	var info WorkspaceInfo

	res := s.backend.Execute(ctx, "version", nil, nil)
	if err := res.Err(); err != nil {
		return fmt.Errorf("cm version: %w", err)
	}
	if lines := res.Lines(); len(lines) > 0 {
		info.Version = lines[0]
		if v, ok := backend.ParseVersion(info.Version); !ok {
			slog.Warn("unable to parse cm version", slog.String("version", info.Version))
		} else if !v.Supported() {
			slog.Warn("cm version is older than supported",
				slog.String("version", v.String()),
				slog.String("min", backend.MinVersion().String()),
			)
		}
	}

	lines, errLines, ok := s.RunCommand(ctx, "whoami", nil, nil)
	if !ok {
		return commandError("whoami", errLines)
	}
	if len(lines) > 0 {
		info.Identity.UserName = lines[0]
	}

	lines, errLines, ok = s.RunCommand(ctx, "getworkspacefrompath", []string{"--format={0}"}, []string{s.root})
	if !ok {
		return commandError("getworkspacefrompath", errLines)
	}
	if len(lines) > 0 {
		info.Identity.WorkspaceName = lines[0]
	}

	lines, errLines, ok = s.RunCommand(ctx, "status", []string{"--nochanges"}, []string{s.root})
	if !ok {
		return commandError("status", errLines)
	}
	if len(lines) == 0 {
		return fmt.Errorf("cm status: %w", ErrNoRepository)
	}
	repo, err := parseRepositorySpec(lines[0])
	if err != nil {
		return fmt.Errorf("cm status: %w: %w", ErrNoRepository, err)
	}
	info.Repository = repo

	lines, errLines, ok = s.RunCommand(ctx, "status", []string{"--wkconfig", "--nochanges", "--nostatus"}, []string{s.root})
	if ok && len(lines) > 0 {
		info.BranchName = lines[0]
	} else if !ok {
		slog.Warn("unable to read branch name", slog.String("errors", strings.Join(errLines, "; ")))
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
	slog.Info("connected to workspace",
		slog.String("version", info.Version),
		slog.String("user", info.Identity.UserName),
		slog.String("workspace", info.Identity.WorkspaceName),
		slog.String("repository", info.Repository.RepositoryName),
		slog.String("server", info.Repository.ServerURL),
		slog.String("branch", info.BranchName),
	)
	return nil
}

func commandError(command string, errLines []string) error {
	if len(errLines) == 0 {
		return fmt.Errorf("cm %s failed", command)
	}
	return fmt.Errorf("cm %s: %s", command, strings.Join(errLines, "; "))
}

// RunCommand runs one command and splits its output and errors into
// non-empty lines.
func (s *Service) RunCommand(ctx context.Context, command string, params, files []string) (lines, errLines []string, ok bool) {
	res := s.backend.Execute(ctx, command, params, files)
	return res.Lines(), res.ErrorLines(), res.Success
}

// UpdateStatus queries status and fileinfo for files. Files are grouped by
// directory; within a group, status stops at the first failure and the
// remaining files are reported as Unknown, and fileinfo only runs when every
// status in the group succeeded. Missing files are reported as Private
// without asking cm and make the overall result false.
func (s *Service) UpdateStatus(ctx context.Context, files []string) (states []FileState, errLines []string, ok bool) {
	done := logging.Op("update status", "files", len(files))
	defer func() {
		var err error
		if !ok {
			err = errors.New(strings.Join(errLines, "; "))
		}
		done(err, "states", len(states))
	}()

	id := s.Info().Identity
	ok = true
	for _, group := range groupByDirectory(files) {
		groupStates, existing, groupErrs, statusOK, missing := s.runStatus(ctx, group)
		errLines = append(errLines, groupErrs...)
		if missing {
			ok = false
		}
		if !statusOK {
			ok = false
		} else if len(existing) > 0 {
			fiErrs, fiOK := s.runFileinfo(ctx, groupStates, existing, id)
			errLines = append(errLines, fiErrs...)
			ok = ok && fiOK
		}
		states = append(states, groupStates...)
	}
	return states, errLines, ok
}

// runStatus runs "cm status" for every file of one directory group. existing
// indexes the states of files found on disk.
func (s *Service) runStatus(ctx context.Context, group []string) (states []FileState, existing []int, errLines []string, ok, missing bool) {
	ok = true
	now := s.now()
	for _, file := range group {
		st := NewFileState(file)
		st.ObservedAt = now
		if !fileExists(file) {
			// Newly created or deleted: nothing to ask cm about.
			st.WorkspaceState = StatePrivate
			states = append(states, st)
			missing = true
			continue
		}
		existing = append(existing, len(states))
		if ok {
			res := s.backend.Execute(ctx, "status", statusParams, []string{file})
			errLines = append(errLines, res.ErrorLines()...)
			if res.Success {
				st.WorkspaceState = parseStatusResult(res.Lines())
				slog.Debug("cm status", slog.String("path", file), slog.String("state", st.WorkspaceState.String()))
			} else {
				ok = false
			}
		}
		states = append(states, st)
	}
	return states, existing, errLines, ok, missing
}

// runFileinfo runs one "cm fileinfo" for the existing files of a group and
// applies its lines, in order, to their states.
func (s *Service) runFileinfo(ctx context.Context, states []FileState, existing []int, id Identity) ([]string, bool) {
	files := make([]string, len(existing))
	for i, idx := range existing {
		files[i] = states[idx].Path
	}
	res := s.backend.Execute(ctx, "fileinfo", fileinfoParams, files)
	if !res.Success {
		return res.ErrorLines(), false
	}
	lines := res.Lines()
	for i := 0; i < len(lines) && i < len(existing); i++ {
		applyFileInfo(&states[existing[i]], parseFileInfo(lines[i]), id)
	}
	return res.ErrorLines(), true
}

// UpdateCachedStates merges states into the cache and reports whether any
// cached entry changed.
func (s *Service) UpdateCachedStates(states []FileState) bool {
	n := s.cache.Merge(states)
	slog.Debug("cached states updated", slog.Int("changed", n), slog.Int("states", len(states)))
	return n > 0
}

// GetHistory lists the revisions of file, oldest first, each resolved with
// "cm log". On failure the revisions resolved so far are still returned.
func (s *Service) GetHistory(ctx context.Context, file string) (history History, errLines []string, ok bool) {
	done := logging.Op("history", "file", file)
	var err error
	defer func() { done(err, "revisions", len(history)) }()

	repo := s.Info().Repository
	if repo.RepositoryName == "" {
		err = ErrNoRepository
		return nil, []string{err.Error()}, false
	}

	lines, errLines, ok := s.RunCommand(ctx, "history", historyParams, []string{file})
	if !ok {
		err = commandError("history", errLines)
		return nil, errLines, false
	}
	history, err = s.correlateHistory(ctx, lines, repo)
	if err != nil {
		return history, append(errLines, err.Error()), false
	}
	return history, errLines, true
}

// DumpToFile writes the content of revSpec to destPath with a standalone cm
// process.
func (s *Service) DumpToFile(ctx context.Context, revSpec, destPath string) error {
	return s.backend.DumpToFile(ctx, revSpec, destPath)
}
