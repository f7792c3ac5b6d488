package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastui/internal/config"
)

var configOpts struct {
	format string
	force  bool
}

// configCmd represents the config command group.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to the config path.

An existing file is left alone unless --force is given.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)

	configInitCmd.Flags().BoolVarP(&configOpts.force, "force", "f", false,
		"Overwrite an existing config file")
	configShowCmd.Flags().StringVar(&configOpts.format, "format", "toml",
		"Output format (toml, yaml)")
}

func configFilePath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFilePath()

	if !configOpts.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := renderConfig(getConfig(), configOpts.format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// renderConfig encodes cfg in the given format.
func renderConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "toml", "":
		return toml.Marshal(cfg)
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown format %q (want toml or yaml)", format)
	}
}
