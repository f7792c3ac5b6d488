// Package main provides the CLI entrypoint for toastui.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		logFile    string
	}
	logger  *slog.Logger
	logSink io.Closer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toastui",
	Short: "Toast notifications for the terminal",
	Long: `toastui shows short-lived toast notifications in the terminal.

At most a few toasts are on screen at once; each one slides in, counts down
and slides out on its own, and the oldest gives way when a new one arrives.
Other programs can raise toasts over the desktop notification bus.

Running toastui without a subcommand launches the interactive TUI.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logSink != nil {
			return logSink.Close()
		}
		return nil
	},
	// Default to the TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/toastui/toastui.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFile, "log-file", "",
		"Write logs to this file instead of stderr")
}

// setupLogger configures the global slog logger.
func setupLogger() error {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output; the TUI owns the
	// terminal, so it logs to a file when one is given
	var out io.Writer = os.Stderr
	if globalOpts.logFile != "" {
		f, err := os.OpenFile(globalOpts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		logSink = f
	}

	handler := slog.NewTextHandler(out, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}
