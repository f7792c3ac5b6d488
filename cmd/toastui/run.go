package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/daemon"
	"github.com/jmylchreest/toastui/internal/display"
	"github.com/jmylchreest/toastui/internal/tui"
)

var runOpts struct {
	dbus    bool
	mirror  bool
	noWatch bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the interactive toast TUI",
	Long: `Launch the terminal toast display.

With --dbus, toastui claims org.freedesktop.Notifications on the session bus
and shows notifications from other programs as toasts. With --mirror it
instead observes notifications sent to another daemon (such as dunst) and
shows a copy of each.

Key bindings:
  s/e/w/i     Raise a success/error/warning/info toast
  x           Dismiss the newest toast
  d           Dismiss the oldest toast
  X/c         Close all toasts
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOpts.dbus, "dbus", false,
		"Serve org.freedesktop.Notifications (default from [dbus] enabled)")
	runCmd.Flags().BoolVar(&runOpts.mirror, "mirror", false,
		"Mirror notifications sent to another notification daemon")
	runCmd.Flags().BoolVar(&runOpts.noWatch, "no-watch", false,
		"Do not reload the config file when it changes")
}

func runTUI(cmd *cobra.Command, args []string) error {
	return runProgram(cmd, nil, true)
}

// runProgram runs the TUI until the user quits or the process is signalled.
// The bus front ends only start when frontEnds is set.
func runProgram(cmd *cobra.Command, script []tui.Step, frontEnds bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The TUI owns the terminal; without a log file, logs are dropped
	log := logger
	if globalOpts.logFile == "" {
		log = slog.New(slog.DiscardHandler)
	}

	current := getConfig()
	manager := display.NewManager(current, nil, log)
	defer manager.Close()

	d := daemon.New(manager, current, log)
	defer d.Stop()

	useBus, mirror := planFrontEnds(cmd, current, frontEnds)
	if err := startFrontEnds(d, useBus, mirror, log); err != nil {
		return err
	}

	ctx = display.WithManager(ctx, manager)
	program := tui.NewProgram(ctx, current, script)

	if !runOpts.noWatch {
		d.SetReloadCallback(func(newConfig *config.Config) {
			program.Send(tui.ConfigReloadedMsg{Config: newConfig})
		})
		path := globalOpts.configPath
		if path == "" {
			path = config.ConfigPath()
		}
		if err := d.WatchConfig(ctx, path); err != nil {
			log.Warn("config hot reload disabled", "path", path, "error", err)
		}
	}

	log.Info("toastui started", "version", version, "dbus", useBus, "mirror", mirror)

	final, err := program.Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}

	log.Info("toastui stopped")
	return nil
}

// planFrontEnds decides whether to serve the notification bus and whether
// to mirror another daemon. Serving follows the config default unless a
// flag chose otherwise; commands without front ends get neither.
func planFrontEnds(cmd *cobra.Command, current *config.Config, frontEnds bool) (useBus, mirror bool) {
	if !frontEnds {
		return false, false
	}
	useBus = runOpts.dbus || (current.DBus.Enabled && !runOpts.mirror && !cmd.Flags().Changed("dbus"))
	return useBus, runOpts.mirror
}

// startFrontEnds starts the bus server or the mirror monitor.
func startFrontEnds(d *daemon.Daemon, useBus, mirror bool, log *slog.Logger) error {
	if mirror && useBus {
		return errors.New("--mirror and --dbus cannot be combined")
	}

	if useBus {
		// A missing bus is reported as a toast, not a fatal error
		if err := d.StartServer(version); err != nil {
			log.Warn("D-Bus server not started", "error", err)
			d.Notifier().NotifyBusError(err)
		}
	}

	if mirror {
		if err := d.StartMonitor(); err != nil {
			return err
		}
	}

	return nil
}
