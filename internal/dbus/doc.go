// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// It provides a server that turns Notify calls into toasts, a monitor that
// mirrors notifications sent to another daemon, and a client used by the
// send and close commands.
package dbus
