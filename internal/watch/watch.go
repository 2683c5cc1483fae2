// Package watch re-runs a build when files under a project change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/barisgit/fluxbuild/internal/logger"
)

// DefaultDebounce coalesces bursts of events into one rebuild
const DefaultDebounce = 250 * time.Millisecond

var skippedDirs = []string{"node_modules", ".git", ".flux"}

// RebuildFunc receives the changed paths, sorted
type RebuildFunc func(ctx context.Context, changed []string) error

type Config struct {
	Root string
	// Poll switches from file system notifications to polling at this interval
	Poll     time.Duration
	Debounce time.Duration
	// Exclude lists absolute paths that never trigger a rebuild, such as the output path
	Exclude []string
	Logger  logger.Logger
	// Fs is only consulted in polling mode
	Fs afero.Fs
}

type Watcher struct {
	cfg Config
}

func New(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	return &Watcher{cfg: cfg}
}

// Run blocks until ctx is done. Rebuild failures are logged and watching goes on.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	events := make(chan string)
	errs := make(chan error, 1)

	go func() {
		var err error
		if w.cfg.Poll > 0 {
			err = w.poll(ctx, events)
		} else {
			err = w.notify(ctx, events)
		}
		errs <- err
	}()

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case path := <-events:
			if w.excluded(path) {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.cfg.Debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)

			w.cfg.Logger.Info("Change detected, rebuilding", "files", len(changed))
			if err := rebuild(ctx, changed); err != nil {
				w.cfg.Logger.Error("Rebuild failed", "error", err)
			}
		}
	}
}

func (w *Watcher) excluded(path string) bool {
	for _, ex := range w.cfg.Exclude {
		rel, err := filepath.Rel(ex, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) skipDir(path string) bool {
	return slices.Contains(skippedDirs, filepath.Base(path)) || w.excluded(path)
}

func (w *Watcher) notify(ctx context.Context, events chan<- string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursively(watcher, w.cfg.Root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.skipDir(event.Name) {
					if err := w.addRecursively(watcher, event.Name); err != nil {
						w.cfg.Logger.Warn("Could not watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case events <- event.Name:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Warn("File watcher error", "error", err)
		}
	}
}

// addRecursively adds root and its subdirectories since fsnotify does not recurse
func (w *Watcher) addRecursively(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			w.cfg.Logger.Warn("Could not watch directory", "path", path, "error", err)
			return nil
		}
		w.cfg.Logger.Debug("Watching directory", "path", path)
		return nil
	})
}

type stamp struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) poll(ctx context.Context, events chan<- string) error {
	previous, err := w.snapshot()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current, err := w.snapshot()
			if err != nil {
				w.cfg.Logger.Warn("Polling failed", "error", err)
				continue
			}
			for _, path := range diff(previous, current) {
				select {
				case events <- path:
				case <-ctx.Done():
					return nil
				}
			}
			previous = current
		}
	}
}

func (w *Watcher) snapshot() (map[string]stamp, error) {
	files := map[string]stamp{}
	err := afero.Walk(w.cfg.Fs, w.cfg.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			if path != w.cfg.Root && w.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		files[path] = stamp{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", w.cfg.Root, err)
	}
	return files, nil
}

// diff lists added, changed and removed paths
func diff(before, after map[string]stamp) []string {
	var changed []string
	for path, s := range after {
		if old, ok := before[path]; !ok || !old.modTime.Equal(s.modTime) || old.size != s.size {
			changed = append(changed, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}
