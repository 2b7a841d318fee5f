package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Watch waits after the last change before reloading, so that
// editors writing in several steps trigger a single reload.
const DefaultSettle = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Settle time.Duration
	Logger *slog.Logger
}

// Watch calls reload once immediately and again after every change to the file at path,
// until ctx is done. Reload errors are logged and do not stop the watch.
func Watch(ctx context.Context, path string, reload func() error, opts WatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	run := func() {
		if err := reload(); err != nil {
			logger.Warn("reload failed", "path", path, "err", err)
		}
	}
	run()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			pending = time.After(settle)
		case <-pending:
			pending = nil
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}
