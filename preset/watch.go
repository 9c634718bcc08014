package preset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"kyberd/blade"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watch watches the preset file and sends each successfully reloaded list on
// the returned channel. The directory is watched so that atomic renames are
// seen. The channel is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, log *slog.Logger) (<-chan []blade.Preset, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	out := make(chan []blade.Preset, 1)
	name := filepath.Clean(s.path)
	log.Info("Preset watcher started", "path", s.path, "debounce", debounce)

	go func() {
		defer close(out)
		defer w.Close()

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Debug("Preset file change detected", "op", ev.Op.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(debounce)
				timerC = timer.C

			case <-timerC:
				timerC = nil
				presets, err := s.Load()
				if err != nil {
					log.Warn("Reload presets", "error", err)
					continue
				}
				select {
				case out <- presets:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("Preset watcher", "error", err)
			}
		}
	}()
	return out, nil
}
