// Package daemon wires the toast manager to D-Bus and the config file.
// It hands toast closes to the notification server, mirrors another daemon
// on request, raises toasts about toastui itself, and reloads the
// configuration when it changes.
package daemon
