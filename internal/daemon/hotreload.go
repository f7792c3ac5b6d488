package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/toastui/internal/config"
)

// defaultDebounce coalesces the burst of events editors emit on save.
const defaultDebounce = 100 * time.Millisecond

// ConfigWatcher watches the config file for changes and validates new configs.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath string
	debounce   time.Duration

	// Callbacks
	onReloadCallback func(newConfig *config.Config)
	onErrorCallback  func(err error)

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewConfigWatcher creates a new ConfigWatcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: path,
		debounce:   defaultDebounce,
	}
}

// SetDebounce sets how long to wait after the last change before reloading.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching the config file for changes.
// The directory is watched rather than the file so atomic renames are seen.
// Cancelling ctx stops the watcher like Stop does.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.configPath), err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.watchLoop(ctx, watcher, w.stopCh, w.doneCh)

	w.logger.Debug("config watcher started", "path", w.configPath)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("config watcher stopped")
}

// watchLoop is the main event loop. However it exits, the watcher is
// left stopped so Start can run it again.
func (w *ConfigWatcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer func() {
		_ = watcher.Close()
		w.mu.Lock()
		if w.doneCh == done {
			w.running = false
		}
		w.mu.Unlock()
	}()

	filename := filepath.Base(w.configPath)

	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug("config file changed", "path", w.configPath, "op", event.Op.String())

			w.mu.RLock()
			debounce := w.debounce
			w.mu.RUnlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// reload loads and validates the config file, then runs the callbacks.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	newConfig, err := config.LoadConfig(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.logger.Info("config reloaded successfully", "path", w.configPath)
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}
