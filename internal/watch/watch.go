package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/plastic-go/internal/debounce"
	"github.com/thiagokokada/plastic-go/internal/plastic"
)

const DefaultDelay = 350 * time.Millisecond

// metadataDir holds the workspace metadata cm rewrites on every command.
const metadataDir = ".plastic"

// Updater is the part of plastic.Service the watcher drives.
type Updater interface {
	UpdateStatus(ctx context.Context, files []string) ([]plastic.FileState, []string, bool)
	UpdateCachedStates(states []plastic.FileState) bool
}

type Options struct {
	Delay time.Duration
	// Ignore holds base name globs, matched with filepath.Match.
	Ignore []string
	// OnUpdate, if set, receives every refreshed batch and whether the cache
	// changed.
	OnUpdate func(states []plastic.FileState, changed bool)
}

// Watcher refreshes the cached state of files changed under a workspace.
type Watcher struct {
	root     string
	ignore   []string
	updater  Updater
	onUpdate func([]plastic.FileState, bool)

	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer

	mu  sync.Mutex
	ctx context.Context
}

func New(root string, updater Updater, opts Options) (*Watcher, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		root:     root,
		ignore:   opts.Ignore,
		updater:  updater,
		onUpdate: opts.OnUpdate,
		fsw:      fsw,
		ctx:      context.Background(),
	}
	w.debounce = debounce.New(opts.Delay, w.refresh)
	if err := w.addTree(root); err != nil {
		return nil, errors.Join(err, fsw.Close())
	}
	return w, nil
}

// Run dispatches file system events until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
	defer w.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) Close() error {
	w.debounce.Stop()
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.shouldIgnore(ev.Name) {
		return
	}
	slog.Debug("fsnotify event",
		slog.String("op", ev.Op.String()),
		slog.String("path", ev.Name),
	)
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("unable to watch new directory", slog.String("path", ev.Name), slog.Any("error", err))
			}
			return
		}
	}
	w.debounce.Add(ev.Name)
}

func (w *Watcher) refresh(paths []string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	slog.Debug("refreshing file states", slog.Int("files", len(paths)))
	states, errLines, ok := w.updater.UpdateStatus(ctx, paths)
	if !ok && len(errLines) > 0 {
		slog.Warn("status update incomplete", slog.Any("errors", errLines))
	}
	changed := w.updater.UpdateCachedStates(states)
	if w.onUpdate != nil {
		w.onUpdate(states, changed)
	}
}

// addTree watches dir and every directory below it, skipping ignored ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			slog.Debug("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	return shouldIgnore(path, w.ignore)
}

func shouldIgnore(path string, patterns []string) bool {
	base := filepath.Base(path)
	if base == metadataDir {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
