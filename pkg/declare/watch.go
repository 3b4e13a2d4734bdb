package declare

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kcaldas/cmdcore/pkg/logging"
)

const defaultDebounce = 200 * time.Millisecond

// ReloadFunc receives the freshly loaded file, or the load error.
type ReloadFunc func(file *File, err error)

// Watcher reloads a declaration file whenever it changes on disk. The
// parent directory is watched so editors that replace the file are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   logging.Logger
}

// NewWatcher starts watching path. Call Run to deliver reloads.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: defaultDebounce,
		watcher:  fw,
		logger:   logging.ForComponent(logger, "declare").With("path", abs),
	}, nil
}

// Run calls fn after each burst of changes until ctx is done.
func (w *Watcher) Run(ctx context.Context, fn ReloadFunc) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			file, err := Load(w.path)
			if err != nil {
				w.logger.Warn("reload failed", "err", err)
			} else {
				w.logger.Info("declarations reloaded", "commands", len(file.Commands))
			}
			fn(file, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}
