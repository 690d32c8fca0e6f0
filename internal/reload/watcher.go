// Package reload watches the config file and hands freshly loaded configs to a callback.
package reload

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/todod/pkg/config"
)

// Debounce is how long the watcher waits after the last write before reloading.
const Debounce = 200 * time.Millisecond

// Watch reloads path with pkgconfig.Load whenever it changes, starting from a
// fresh value from newCfg each time, and calls apply with the result.
// Invalid configs are logged and skipped. It returns when ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so editors that
// save through rename are picked up.
func Watch[T any](ctx context.Context, path string, newCfg func() *T, logger *slog.Logger, apply func(*T)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("config watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-timerCh:
			timerCh = nil
			cfg := newCfg()
			if loadErr := pkgconfig.Load(abs, cfg); loadErr != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("config watcher: reloaded", slog.String("path", abs))
			apply(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(Debounce)
			} else {
				timer.Reset(Debounce)
			}
			timerCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
