package config

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes and hands the new
// configuration to a callback. Rewrites that leave the content as it was,
// invalid files, and edits confined to sections that need a restart are
// not delivered.
type Watcher struct {
	path     string
	debounce time.Duration
	callback func(*Config)

	mu      sync.Mutex
	current *Config
	digest  [sha256.Size]byte

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher watches path. current is the configuration already applied;
// its watch.debounce sets the reload delay.
func NewWatcher(path string, current *Config, callback func(*Config)) *Watcher {
	debounce := 100 * time.Millisecond
	if current != nil && current.Watch.Debounce > 0 {
		debounce = current.Watch.Debounce
	}
	w := &Watcher{
		path:     path,
		debounce: debounce,
		callback: callback,
		current:  current,
		stop:     make(chan struct{}),
	}
	if data, err := os.ReadFile(path); err == nil {
		w.digest = sha256.Sum256(data)
	}
	return w
}

// Current returns the last configuration delivered, or the initial one.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Start begins watching the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// The directory is watched so replace-on-save editors are seen.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fsw.Close()

		slog.Info("starting config watcher", "path", w.path, "debounce", w.debounce)

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, w.reload)

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Error("failed to read configuration", "path", w.path, "error", err)
		return
	}

	if next := w.apply(data); next != nil && w.callback != nil {
		w.callback(next)
	}
}

// apply loads the file behind data and records it as current. It returns
// the configuration to deliver, or nil.
func (w *Watcher) apply(data []byte) *Config {
	w.mu.Lock()
	defer w.mu.Unlock()

	digest := sha256.Sum256(data)
	if digest == w.digest {
		slog.Debug("config file rewritten without changes", "path", w.path)
		return nil
	}

	next, err := Load(w.path)
	if err != nil {
		slog.Error("failed to reload configuration, keeping previous", "path", w.path, "error", err)
		return nil
	}
	w.digest = digest

	changed := Changed(w.current, next)
	restart := RestartRequired(changed)
	if len(restart) > 0 {
		slog.Warn("config sections changed that apply on restart only", "path", w.path, "sections", restart)
	}
	w.current = next
	if len(changed) == len(restart) {
		return nil
	}

	slog.Info("config reloaded", "path", w.path, "sections", changed)
	return next
}
