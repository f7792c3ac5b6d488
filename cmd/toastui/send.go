package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/dbus"
	"github.com/jmylchreest/toastui/internal/model"
)

var sendOpts struct {
	kind     string
	title    string
	message  string
	duration time.Duration
}

var sendCmd = &cobra.Command{
	Use:   "send [title]",
	Short: "Raise a toast on the running notification daemon",
	Long: `Send a notification over D-Bus.

When toastui is running with --dbus the notification appears as a toast of
the given kind; any other notification daemon shows it as a normal
notification. The bus id is printed so it can be passed to 'toastui close'.`,
	Example: `  toastui send --kind success "Build finished"
  toastui send --kind error --title "Deploy failed" --message "exit status 1" --duration 8s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.kind, "kind", "k", string(model.KindInfo),
		"Toast kind (success, error, warning, info)")
	sendCmd.Flags().StringVarP(&sendOpts.title, "title", "t", "",
		"Toast title")
	sendCmd.Flags().StringVarP(&sendOpts.message, "message", "m", "",
		"Toast message")
	sendCmd.Flags().DurationVarP(&sendOpts.duration, "duration", "d", 0,
		"How long the toast stays up (default from config)")
}

func runSend(cmd *cobra.Command, args []string) error {
	title := sendOpts.title
	if title == "" && len(args) > 0 {
		title = args[0]
	}
	if title == "" {
		return fmt.Errorf("a title is required")
	}

	client, err := dbus.NewClient(getConfig().DBus.AppName)
	if err != nil {
		return err
	}

	id, err := client.Notify(model.Request{
		Kind:     model.ParseKind(sendOpts.kind),
		Title:    title,
		Message:  sendOpts.message,
		Duration: sendOpts.duration,
	})
	if err != nil {
		return err
	}

	logger.Debug("sent toast", "dbus_id", id, "kind", sendOpts.kind)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
