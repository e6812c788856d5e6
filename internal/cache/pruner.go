package cache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Prune starts an fsnotify watcher on the artifact tree and drops index
// rows whose files are removed or renamed away, until ctx is cancelled.
// Lookup validates existence anyway, so pruning is an optimization that
// keeps the index from accumulating dead rows between lookups (the
// eviction sweep deletes files without consulting the index).
func Prune(ctx context.Context, ix *Index, root string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	// Reconcile once at startup: files deleted while no pruner was
	// running have left dead rows behind.
	if err := reconcile(ix, logger); err != nil {
		logger.Warn("cache pruner: initial reconcile failed", slog.String("error", err.Error()))
	}

	logger.Info("cache pruner: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("cache pruner: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New category directories created at runtime get watched too.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("cache pruner: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
				continue
			}

			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := ix.DeleteByPath(ev.Name); err != nil {
				logger.Warn("cache pruner: drop entry failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			} else {
				logger.Debug("cache pruner: dropped entry", slog.String("path", ev.Name))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("cache pruner: watch error", slog.String("error", err.Error()))
		}
	}
}

func reconcile(ix *Index, logger *slog.Logger) error {
	paths, err := ix.AllPaths()
	if err != nil {
		return err
	}
	for p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if err := ix.DeleteByPath(p); err != nil {
				return err
			}
			logger.Debug("cache pruner: reconciled dead entry", slog.String("path", p))
		}
	}
	return nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
