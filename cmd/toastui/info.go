package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/dbus"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which notification daemon owns the session bus",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient(getConfig().DBus.AppName)
	if err != nil {
		return err
	}

	info, err := client.ServerInformation()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "name:    %s\nvendor:  %s\nversion: %s\nspec:    %s\n",
		info.Name, info.Vendor, info.Version, info.SpecVersion)
	return nil
}
