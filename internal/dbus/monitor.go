package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const notifyMatchRule = "type='method_call',interface='org.freedesktop.Notifications',member='Notify'"

// MirrorHandler receives a notification observed on the bus.
type MirrorHandler func(notification *DBusNotification)

// Monitor passively observes Notify calls sent to another notification
// daemon, so toastui can mirror them without owning the bus name.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify MirrorHandler
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetNotifyHandler sets the callback for observed notifications.
func (m *Monitor) SetNotifyHandler(handler MirrorHandler) {
	m.onNotify = handler
}

// Start begins monitoring D-Bus for notification traffic.
// The monitor needs its own connection: BecomeMonitor turns it receive-only.
func (m *Monitor) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		[]string{notifyMatchRule},
		uint32(0),
	).Err
	if err != nil {
		// Older buses only offer eavesdropping match rules
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		return m.startWithAddMatch()
	}

	m.logger.Info("started D-Bus monitor using BecomeMonitor")
	go m.processMessages()
	return nil
}

// startWithAddMatch uses the older AddMatch API for eavesdropping.
func (m *Monitor) startWithAddMatch() error {
	err := m.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch",
		0,
		notifyMatchRule+",eavesdrop='true'",
	).Err
	if err != nil {
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	go m.processMessages()
	return nil
}

// processMessages reads bus messages until the connection closes.
func (m *Monitor) processMessages() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		if !isNotifyCall(msg) {
			continue
		}

		notification, err := parseNotifyCall(msg.Body)
		if err != nil {
			m.logger.Warn("malformed Notify call", "error", err)
			continue
		}

		m.logger.Debug("observed notification",
			"app", notification.AppName,
			"summary", notification.Summary,
		)

		if m.onNotify != nil {
			m.onNotify(notification)
		}
	}
}

func isNotifyCall(msg *dbus.Message) bool {
	if msg.Type != dbus.TypeMethodCall {
		return false
	}
	iface, ok := msg.Headers[dbus.FieldInterface]
	if !ok || iface.Value() != DBusInterface {
		return false
	}
	member, ok := msg.Headers[dbus.FieldMember]
	return ok && member.Value() == "Notify"
}

// parseNotifyCall decodes the body of
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func parseNotifyCall(body []any) (*DBusNotification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("expected 8 arguments, got %d", len(body))
	}

	n := &DBusNotification{}

	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, fmt.Errorf("invalid app_name type %T", body[0])
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, fmt.Errorf("invalid replaces_id type %T", body[1])
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, fmt.Errorf("invalid app_icon type %T", body[2])
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, fmt.Errorf("invalid summary type %T", body[3])
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, fmt.Errorf("invalid body type %T", body[4])
	}

	// The remaining arguments are optional in practice
	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}

	return n, nil
}

// Stop stops the monitor.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
