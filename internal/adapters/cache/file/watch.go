package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch calls onChange whenever the cache file is written, replaced or
// removed by another process sharing it. Changes made through this Store's
// own Save and Delete are ignored. The directory is watched rather than the
// file because Save replaces it by rename. Watching stops when ctx is
// cancelled.
func (s *Store) Watch(ctx context.Context, logger *zap.Logger, onChange func()) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch cache dir %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					if s.ownState() {
						continue
					}
					logger.Debug("Model cache file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("fsnotify error", zap.Error(err))
			}
		}
	}()

	return nil
}
