package dbus

import (
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastui/internal/display"
	"github.com/jmylchreest/toastui/internal/model"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the freedesktop spec.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CloseReasonFor maps a display close reason onto the bus close reason.
// An evicted toast counts as dismissed: it left the screen before its timeout.
func CloseReasonFor(r display.CloseReason) CloseReason {
	switch r {
	case display.CloseReasonExpired:
		return CloseReasonExpired
	case display.CloseReasonDismissed, display.CloseReasonEvicted:
		return CloseReasonDismissed
	case display.CloseReasonClosed:
		return CloseReasonClosed
	default:
		return CloseReasonUndefined
	}
}

// Urgency levels from the urgency hint.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// KindHint is the hint carrying an explicit toast kind.
const KindHint = "x-toastui-kind"

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

func (n *DBusNotification) stringHint(name string) string {
	if v, ok := n.Hints[name]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Kind picks the toast kind. An explicit kind hint wins, then the
// category, then the urgency.
func (n *DBusNotification) Kind() model.Kind {
	if hint := n.stringHint(KindHint); hint != "" {
		return model.ParseKind(hint)
	}

	category := n.Category()
	switch {
	case strings.HasSuffix(category, ".error"):
		return model.KindError
	case strings.HasSuffix(category, ".success"), category == "transfer.complete":
		return model.KindSuccess
	case strings.HasSuffix(category, ".warning"):
		return model.KindWarning
	}

	if n.Urgency() >= UrgencyCritical {
		return model.KindError
	}
	return model.KindInfo
}

// Duration converts expire_timeout to a toast duration. Zero means the
// manager default; toasts always time out, so "never expire" uses it too.
func (n *DBusNotification) Duration() time.Duration {
	if n.ExpireTimeout <= 0 {
		return 0
	}
	return time.Duration(n.ExpireTimeout) * time.Millisecond
}

// Request converts the notification into a toast request.
func (n *DBusNotification) Request() model.Request {
	title := n.Summary
	if title == "" {
		title = n.AppName
	}
	return model.Request{
		Kind:     n.Kind(),
		Title:    title,
		Message:  n.Body,
		Duration: n.Duration(),
	}
}

// ServerCapabilities lists the capabilities advertised by toastui.
var ServerCapabilities = []string{
	"body", // Support body text
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "toastui"
	Vendor      string // "toastui"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastui",
		Vendor:      "toastui",
		Version:     "0.0.1", // Will be replaced by build-time version
		SpecVersion: "1.2",
	}
}
