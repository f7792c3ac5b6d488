package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/model"
)

// internalDuration is how long toasts about toastui itself stay up.
const internalDuration = 5 * time.Second

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelSuccess is for completed operations.
	NotificationLevelSuccess
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning
	// NotificationLevelError is for error messages.
	NotificationLevelError
)

// Kind returns the toast kind used for the level.
func (l NotificationLevel) Kind() model.Kind {
	switch l {
	case NotificationLevelSuccess:
		return model.KindSuccess
	case NotificationLevelWarning:
		return model.KindWarning
	case NotificationLevelError:
		return model.KindError
	default:
		return model.KindInfo
	}
}

// InternalNotifier raises toasts about toastui's own events.
// The same key is not raised again within the minimum interval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Handler for creating toasts
	notifyHandler func(req model.Request) string

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function that raises the toast, normally Manager.Show.
func (n *InternalNotifier) SetNotifyHandler(handler func(req model.Request) string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify raises an internal toast unless it is rate-limited, and returns its id.
// The empty string means nothing was raised.
func (n *InternalNotifier) Notify(key, title, message string, level NotificationLevel) string {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return ""
	}

	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "title", title)
		return ""
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "title", title)
		return ""
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending internal notification", "key", key, "title", title, "level", level)

	// The handler takes the manager lock, so it runs outside ours
	return handler(model.Request{
		Kind:     level.Kind(),
		Title:    title,
		Message:  message,
		Duration: internalDuration,
	})
}

// NotifyConfigReloaded raises a toast about the config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() string {
	return n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"toastui configuration has been successfully reloaded.",
		NotificationLevelSuccess,
	)
}

// NotifyConfigError raises a toast about a config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) string {
	return n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyBusError raises a toast when the D-Bus front end could not start.
func (n *InternalNotifier) NotifyBusError(err error) string {
	return n.Notify(
		"dbus-error",
		"D-Bus Unavailable",
		"Notifications from other programs will not be shown: "+err.Error(),
		NotificationLevelWarning,
	)
}
