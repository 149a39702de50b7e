package ml

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates a Holder whenever its model file changes on disk. The
// containing directory is watched so that atomic replace-by-rename is seen.
type Watcher struct {
	holder  *Holder
	target  string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	changed func()
}

func NewWatcher(holder *Holder, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target, err := filepath.Abs(holder.Path())
	if err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		holder:  holder,
		target:  target,
		watcher: fw,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// OnChange registers fn to run after each invalidation. Call before Watch.
func (w *Watcher) OnChange(fn func()) {
	w.changed = fn
}

func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.target)); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.holder.Invalidate()
			w.logger.Info("model file changed, cache invalidated",
				zap.String("path", w.target),
				zap.String("op", event.Op.String()))
			if w.changed != nil {
				w.changed()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}
