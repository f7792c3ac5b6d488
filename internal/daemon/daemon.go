package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/dbus"
	"github.com/jmylchreest/toastui/internal/display"
)

// Daemon connects the toast manager to the outside world: the D-Bus
// notification interface, the mirror monitor and the config watcher.
type Daemon struct {
	mu     sync.Mutex
	logger *slog.Logger

	manager  *display.Manager
	server   *dbus.NotificationServer
	monitor  *dbus.Monitor
	watcher  *ConfigWatcher
	notifier *InternalNotifier

	cfg      *config.Config
	onReload func(*config.Config)
}

// New creates a Daemon around manager. It takes over the manager's close callback.
func New(manager *display.Manager, cfg *config.Config, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	d := &Daemon{
		logger:   logger,
		manager:  manager,
		server:   dbus.NewNotificationServer(manager, logger),
		notifier: NewInternalNotifier(logger),
		cfg:      cfg,
	}

	d.notifier.SetNotifyHandler(manager.Show)
	manager.SetCloseCallback(d.server.ToastClosed)

	return d
}

// Notifier returns the notifier for toasts about toastui itself.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// SetReloadCallback sets a callback run after a config reload was applied.
func (d *Daemon) SetReloadCallback(cb func(*config.Config)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onReload = cb
}

// StartServer claims the notification bus name and starts serving.
func (d *Daemon) StartServer(version string) error {
	info := dbus.DefaultServerInfo()
	if d.cfg.DBus.AppName != "" {
		info.Name = d.cfg.DBus.AppName
	}
	if version != "" {
		info.Version = version
	}
	d.server.SetServerInfo(info)

	if err := d.server.Start(); err != nil {
		return fmt.Errorf("start notification server: %w", err)
	}
	return nil
}

// StartMonitor mirrors notifications sent to another daemon as toasts.
func (d *Daemon) StartMonitor() error {
	monitor := dbus.NewMonitor(d.logger)
	monitor.SetNotifyHandler(d.handleMirror)
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("start notification monitor: %w", err)
	}

	d.mu.Lock()
	d.monitor = monitor
	d.mu.Unlock()
	return nil
}

// WatchConfig reloads the config at path whenever it changes.
func (d *Daemon) WatchConfig(ctx context.Context, path string) error {
	watcher := NewConfigWatcher(path, d.logger)
	watcher.SetReloadCallback(d.applyConfig)
	watcher.SetErrorCallback(func(err error) {
		d.notifier.NotifyConfigError(err)
	})

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	d.watcher = watcher
	d.mu.Unlock()
	return nil
}

// Stop shuts down the bus front ends and the config watcher.
// The manager itself belongs to the caller.
func (d *Daemon) Stop() {
	d.mu.Lock()
	monitor := d.monitor
	watcher := d.watcher
	d.monitor = nil
	d.watcher = nil
	d.mu.Unlock()

	d.notifier.SetEnabled(false)

	if watcher != nil {
		watcher.Stop()
	}
	if monitor != nil {
		if err := monitor.Stop(); err != nil {
			d.logger.Warn("failed to stop notification monitor", "error", err)
		}
	}
	if err := d.server.Stop(); err != nil {
		d.logger.Warn("failed to stop notification server", "error", err)
	}
}

// applyConfig hands a freshly loaded config to the manager and the UI.
func (d *Daemon) applyConfig(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	cb := d.onReload
	d.mu.Unlock()

	d.manager.UpdateConfig(cfg)
	if cb != nil {
		cb(cfg)
	}
	if cfg.Internal.NotifyReload {
		d.notifier.NotifyConfigReloaded()
	}
}

// handleMirror shows a notification observed on the bus.
func (d *Daemon) handleMirror(n *dbus.DBusNotification) {
	toastID := d.manager.Show(n.Request())
	d.logger.Debug("mirrored notification", "toast_id", toastID, "app_name", n.AppName)
}
