package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"fintracker/internal/log"
)

// Watcher reports changes to the session file. The parent directory is
// watched because atomic replaces swap the file's inode.
type Watcher struct {
	path   string
	logger *log.Logger
}

func NewWatcher(path string, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default(log.ComponentSession)
	}
	return &Watcher{
		path:   filepath.Clean(path),
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// Run calls notify for every filesystem event on the session file until ctx
// is done.
func (w *Watcher) Run(ctx context.Context, notify func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.InfoContext(ctx, "Watching session file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.DebugContext(ctx, "Session file changed", "op", ev.Op.String())
			notify()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "Session watcher error", log.FieldError, err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
