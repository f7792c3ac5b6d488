package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toastui/internal/display"
	"github.com/jmylchreest/toastui/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"

	introspectableInterface = "org.freedesktop.DBus.Introspectable"
)

var (
	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = errors.New("server already running")
	// ErrNameTaken means another notification daemon owns the bus name.
	ErrNameTaken = errors.New("bus name already taken")
	// ErrNotConnected is returned when emitting without a bus connection.
	ErrNotConnected = errors.New("not connected to D-Bus")
)

// Toaster shows and removes toasts. *display.Manager implements it.
type Toaster interface {
	Show(req model.Request) string
	Dismiss(id string)
	Get(id string) (display.ActiveToast, bool)
}

// NotificationServer serves org.freedesktop.Notifications by raising toasts.
// Every bus id it hands out is bound to one toast and gets exactly one
// NotificationClosed signal, unless a replacement takes it over.
type NotificationServer struct {
	toaster Toaster
	logger  *slog.Logger

	mu     sync.Mutex
	conn   *dbus.Conn
	info   ServerInfo
	lastID uint32
	open   *registry

	// emit sends NotificationClosed; swapped out in tests
	emit func(id uint32, reason CloseReason) error
}

// NewNotificationServer creates a server raising toasts on toaster.
// Pass its ToastClosed method to the toaster's close callback.
func NewNotificationServer(toaster Toaster, logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &NotificationServer{
		toaster: toaster,
		logger:  logger,
		info:    DefaultServerInfo(),
		open:    newRegistry(),
	}
	s.emit = s.emitClosed
	return s
}

// SetServerInfo sets what GetServerInformation reports.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// Start claims the bus name on the session bus. It fails with ErrNameTaken
// instead of replacing a running notification daemon.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return ErrAlreadyRunning
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	obj := busObject{s}
	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: introspect.Methods(obj),
				Signals: []introspect.Signal{{
					Name: "NotificationClosed",
					Args: []introspect.Arg{{Name: "id", Type: "u"}, {Name: "reason", Type: "u"}},
				}},
			},
		},
	}
	if err := conn.Export(obj, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", DBusInterface, err)
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath, introspectableInterface); err != nil {
		unexport(conn)
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		unexport(conn)
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		unexport(conn)
		return fmt.Errorf("%w: %s", ErrNameTaken, DBusBusName)
	}

	s.conn = conn
	s.logger.Info("D-Bus notification server started", "name", DBusBusName, "path", DBusPath)
	return nil
}

// Stop gives up the bus name. The shared session connection stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	unexport(conn)
	if _, err := conn.ReleaseName(DBusBusName); err != nil {
		return fmt.Errorf("failed to release %s: %w", DBusBusName, err)
	}
	s.logger.Info("D-Bus notification server stopped")
	return nil
}

func unexport(conn *dbus.Conn) {
	_ = conn.Export(nil, DBusPath, DBusInterface)
	_ = conn.Export(nil, DBusPath, introspectableInterface)
}

// Notify raises a toast for n and returns its bus id. A replaces_id that
// is still open keeps its id; the toast it named is dismissed silently.
func (s *NotificationServer) Notify(n *DBusNotification) uint32 {
	s.mu.Lock()
	id := n.ReplacesID
	old, replacing := "", false
	if id != 0 {
		old, replacing = s.open.releaseBus(id)
	}
	if !replacing {
		s.lastID++
		if s.lastID == 0 {
			s.lastID++
		}
		id = s.lastID
	}
	s.mu.Unlock()

	if replacing {
		s.toaster.Dismiss(old)
	}

	toastID := s.toaster.Show(n.Request())

	s.mu.Lock()
	s.open.bind(id, toastID)
	s.mu.Unlock()

	// Eviction by a concurrent Show, or a closed manager, can beat the bind
	if _, ok := s.toaster.Get(toastID); !ok {
		s.release(toastID, CloseReasonDismissed)
	}

	s.logger.Debug("toast raised over D-Bus",
		"dbus_id", id,
		"toast_id", toastID,
		"app_name", n.AppName,
		"replaced", replacing,
	)
	return id
}

// Close dismisses the toast behind id and signals CloseReasonClosed.
// It reports whether id was open.
func (s *NotificationServer) Close(id uint32) bool {
	s.mu.Lock()
	toastID, ok := s.open.releaseBus(id)
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.toaster.Dismiss(toastID)
	if err := s.emit(id, CloseReasonClosed); err != nil {
		s.logger.Debug("NotificationClosed not sent", "dbus_id", id, "error", err)
	}
	return true
}

// ToastClosed signals NotificationClosed when a toast raised over the bus
// leaves the screen. It matches display.CloseCallback.
func (s *NotificationServer) ToastClosed(t model.Toast, reason display.CloseReason) {
	s.release(t.ID, CloseReasonFor(reason))
}

func (s *NotificationServer) release(toastID string, reason CloseReason) {
	s.mu.Lock()
	id, ok := s.open.releaseToast(toastID)
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := s.emit(id, reason); err != nil {
		s.logger.Debug("NotificationClosed not sent", "dbus_id", id, "error", err)
	}
}

func (s *NotificationServer) emitClosed(id uint32, reason CloseReason) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed: %w", err)
	}
	s.logger.Debug("emitted NotificationClosed", "dbus_id", id, "reason", reason.String())
	return nil
}

// busObject is what gets exported; only its methods are visible on the bus.
type busObject struct {
	s *NotificationServer
}

func (o busObject) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

func (o busObject) GetServerInformation() (string, string, string, string, *dbus.Error) {
	o.s.mu.Lock()
	info := o.s.info
	o.s.mu.Unlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

func (o busObject) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	return o.s.Notify(&DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}), nil
}

func (o busObject) CloseNotification(id uint32) *dbus.Error {
	o.s.Close(id)
	return nil
}
