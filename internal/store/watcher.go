package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region watcher
// Watcher re-imports a world JSON file whenever it changes.
// The parent directory is watched so editors that save by rename are seen.
type Watcher struct {
	path     string
	dst      Saver
	logger   *zap.Logger
	debounce time.Duration
	trigger  string

	// OnImport, if set, is called after each successful import.
	OnImport func(versionID string, w world.World)
}

// NewWatcher creates a watcher that saves into dst with the given trigger.
func NewWatcher(path string, dst Saver, trigger string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		dst:      dst,
		logger:   logger,
		debounce: 300 * time.Millisecond,
		trigger:  trigger,
	}
}

// SetDebounce changes the quiet period between the last write and the import.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run blocks until ctx is done. Invalid files are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching world file", zap.String("path", w.path))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("world file event", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.importFile(ctx)
		}
	}
}

func (w *Watcher) importFile(ctx context.Context) {
	next, err := ReadWorldFile(w.path)
	if err != nil {
		w.logger.Warn("skipping world file", zap.String("path", w.path), zap.Error(err))
		return
	}
	id, err := w.dst.Save(ctx, next, Meta{Trigger: w.trigger, Note: "watch " + w.path})
	if err != nil {
		w.logger.Error("import world file", zap.Error(err))
		return
	}
	w.logger.Info("imported world file",
		zap.String("version_id", id),
		zap.Int("events", len(next.Nodes)),
		zap.Int("edges", len(next.Edges)),
	)
	if w.OnImport != nil {
		w.OnImport(id, next)
	}
}

// #endregion watcher
