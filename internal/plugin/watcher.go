package plugin

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports when the image file of a loaded plugin changes on disk.
// Plugins are never reloaded in place; the change takes effect on restart.
type Watcher struct {
	mu sync.Mutex

	reg    *Registry
	fsw    *fsnotify.Watcher
	logger *zap.Logger

	// Watched directories
	dirs map[string]bool

	changes chan string
}

// NewWatcher creates a watcher for the plugins in reg.
func NewWatcher(reg *Registry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		reg:     reg,
		fsw:     fsw,
		logger:  reg.logger.Named("watch"),
		dirs:    make(map[string]bool),
		changes: make(chan string, 16),
	}, nil
}

// Sync starts watching the directory of every file-backed plugin currently
// loaded.
func (w *Watcher) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, rec := range w.reg.List() {
		if strings.HasPrefix(rec.Path(), BuiltinPrefix) {
			continue
		}
		abs, err := filepath.Abs(rec.Path())
		if err != nil {
			return err
		}
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	return nil
}

// Changes delivers the paths of loaded images that changed. Sends are
// dropped when the channel is full.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run processes filesystem events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
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
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	changed, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	for _, rec := range w.reg.List() {
		abs, err := filepath.Abs(rec.Path())
		if err != nil || abs != changed {
			continue
		}
		w.logger.Warn("plugin image changed on disk, restart to apply",
			zap.String("plugin", rec.Name()),
			zap.String("path", rec.Path()),
			zap.String("op", ev.Op.String()))
		select {
		case w.changes <- rec.Path():
		default:
		}
		return
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
