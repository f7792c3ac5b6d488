package dbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastui/internal/model"
)

// Client sends notifications to whichever daemon owns the notification bus name.
type Client struct {
	conn    *dbus.Conn
	appName string
}

// NewClient connects to the session bus.
func NewClient(appName string) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, appName: appName}, nil
}

// Notify raises a toast and returns its bus id.
func (c *Client) Notify(req model.Request) (uint32, error) {
	hints := map[string]dbus.Variant{
		KindHint:  dbus.MakeVariant(string(model.ParseKind(string(req.Kind)))),
		"urgency": dbus.MakeVariant(byte(urgencyFor(req.Kind))),
	}

	timeout := int32(-1)
	if req.Duration > 0 {
		timeout = int32(req.Duration / time.Millisecond)
	}

	var id uint32
	err := c.object().Call(DBusInterface+".Notify", 0,
		c.appName,
		uint32(0),
		"",
		req.Title,
		req.Message,
		[]string{},
		hints,
		timeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// CloseNotification asks the daemon to close the notification with id.
func (c *Client) CloseNotification(id uint32) error {
	if err := c.object().Call(DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}

// ServerInformation returns the name, vendor and version of the running daemon.
func (c *Client) ServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := c.object().Call(DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information: %w", err)
	}
	return info, nil
}

func (c *Client) object() dbus.BusObject {
	return c.conn.Object(DBusBusName, DBusPath)
}

// urgencyFor lets daemons that ignore the kind hint still rank errors higher.
func urgencyFor(kind model.Kind) int {
	if kind == model.KindError {
		return UrgencyCritical
	}
	return UrgencyNormal
}
