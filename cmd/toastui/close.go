package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/dbus"
)

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a toast on the running notification daemon",
	Long:  `Close the notification with the bus id printed by 'toastui send'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

func init() {
	rootCmd.AddCommand(closeCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid notification id %q: %w", args[0], err)
	}

	client, err := dbus.NewClient(getConfig().DBus.AppName)
	if err != nil {
		return err
	}

	if err := client.CloseNotification(uint32(id)); err != nil {
		return err
	}

	logger.Debug("closed toast", "dbus_id", id)
	return nil
}
