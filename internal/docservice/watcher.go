package docservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docfind/internal/apperr"
)

// DefaultDebounce is the quiet period after the last file event before a
// watched root is re-indexed.
const DefaultDebounce = 2 * time.Second

// WatchCallback is called after each watcher-driven index run.
type WatchCallback func(report Report, err error)

// Watch re-indexes roots whenever supported files under them change, until
// ctx is cancelled. Events are debounced per root; a run that collides with
// a manual index run is retried after another debounce period. New
// directories are added to the watch list as they appear; removing or
// renaming a watched directory marks its root dirty.
func (s *Service) Watch(ctx context.Context, roots []string, debounce time.Duration, cb WatchCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("docservice: watcher: %w", err)
	}
	defer w.Close()

	absRoots := make([]string, 0, len(roots))
	watched := make(map[string]struct{})
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return fmt.Errorf("docservice: watch %s: %w", r, err)
		}
		if err := s.addDirsRecursive(w, abs, watched); err != nil {
			return fmt.Errorf("docservice: watch %s: %w", abs, err)
		}
		absRoots = append(absRoots, abs)
		s.logger.Info("watcher: started", slog.String("root", abs))
	}

	dirty := make(map[string]struct{})
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			for root := range dirty {
				report, err := s.IndexDirectory(ctx, root, nil)
				if errors.Is(err, apperr.ErrConflict) {
					s.logger.Debug("watcher: index busy, retrying", slog.String("root", root))
					continue
				}
				delete(dirty, root)
				if err != nil {
					s.logger.Warn("watcher: index failed", slog.String("root", root), slog.String("error", err.Error()))
				}
				if cb != nil {
					cb(report, err)
				}
			}
			if len(dirty) > 0 {
				schedule()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if s.scanner.SkipDir(ev.Name) {
						continue
					}
					if addErr := s.addDirsRecursive(w, ev.Name, watched); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					s.markDirty(dirty, absRoots, ev.Name)
					schedule()
					continue
				}
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if _, ok := watched[ev.Name]; ok {
					unwatchDirs(w, watched, ev.Name)
					s.logger.Debug("watcher: dir gone", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
					s.markDirty(dirty, absRoots, ev.Name)
					schedule()
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !s.scanner.Supported(ev.Name) {
				continue
			}
			s.logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			s.markDirty(dirty, absRoots, ev.Name)
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// markDirty flags every root containing path.
func (s *Service) markDirty(dirty map[string]struct{}, roots []string, path string) {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || filepath.IsAbs(rel) || (len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)) {
			continue
		}
		dirty[root] = struct{}{}
	}
}

// addDirsRecursive adds root and its non-skipped subdirectories to the
// watcher and records them in watched.
func (s *Service) addDirsRecursive(w *fsnotify.Watcher, root string, watched map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && s.scanner.SkipDir(path) {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			return err
		}
		watched[path] = struct{}{}
		return nil
	})
}

// unwatchDirs forgets dir and everything recorded below it. Removal errors
// are ignored; the kernel may already have dropped the watch.
func unwatchDirs(w *fsnotify.Watcher, watched map[string]struct{}, dir string) {
	prefix := dir + string(filepath.Separator)
	for p := range watched {
		if p == dir || strings.HasPrefix(p, prefix) {
			delete(watched, p)
			_ = w.Remove(p)
		}
	}
}
