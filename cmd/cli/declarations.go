package cli

import (
	"context"
	"fmt"

	"github.com/kcaldas/cmdcore/internal/di"
	"github.com/kcaldas/cmdcore/pkg/declare"
	"github.com/kcaldas/cmdcore/pkg/events"
	"github.com/kcaldas/cmdcore/pkg/logging"
)

// loadDeclarations registers the commands declared in path.
func loadDeclarations(h *di.Host, path string) error {
	file, err := declare.Load(path)
	return applyDeclarations(h, path, file, err)
}

// applyDeclarations registers file's commands, or reports loadErr, and
// publishes the outcome.
func applyDeclarations(h *di.Host, path string, file *declare.File, loadErr error) error {
	ev := events.CommandsReloadedEvent{Path: path}
	err := loadErr
	if err == nil {
		ev.Commands = len(file.Commands)
		err = declare.Apply(h.Registry, file.Commands)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	events.Emit(h.Bus, ev)
	if err != nil {
		return fmt.Errorf("declarations in %s: %w", path, err)
	}
	return nil
}

// watchDeclarations re-applies path on every change until ctx is done.
func watchDeclarations(ctx context.Context, h *di.Host, path string) error {
	w, err := declare.NewWatcher(path, nil)
	if err != nil {
		return err
	}
	go func() {
		err := w.Run(ctx, func(file *declare.File, err error) {
			if err := applyDeclarations(h, path, file, err); err != nil {
				logging.Warn("reload failed", "path", path, "err", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			logging.Error("declaration watcher stopped", "path", path, "err", err)
		}
	}()
	return nil
}
