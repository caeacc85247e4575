package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchReloadWindow coalesces the bursts of filesystem events editors
// produce for a single save.
const watchReloadWindow = 200 * time.Millisecond

// watchConfig watches the config file and invokes apply with each freshly
// loaded, validated config. Only runtime-tunable settings (the debounce
// windows) are expected to change; apply decides what it picks up.
//
// The watch is on the parent directory, not the file itself: most editors
// save via rename, which would silently detach a file-level watch.
func watchConfig(ctx context.Context, path string, logger *slog.Logger, apply func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	path = ExpandPath(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	logger.Info("watching config for changes", "path", path)

	var lastReload time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			now := time.Now()
			if now.Sub(lastReload) < watchReloadWindow {
				continue
			}
			lastReload = now

			cfg, err := LoadConfigFile(path)
			if err != nil {
				logger.Warn("config reload failed, keeping previous settings", "error", err)
				continue
			}
			if err := cfg.ApplyEnv(); err != nil {
				logger.Warn("config reload failed, keeping previous settings", "error", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				logger.Warn("config reload rejected, keeping previous settings", "error", err)
				continue
			}

			apply(cfg)
			logger.Info("config reloaded", "path", path)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
