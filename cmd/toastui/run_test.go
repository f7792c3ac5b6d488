package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/config"
)

func busEnabledConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DBus.Enabled = true
	return cfg
}

func TestPlanFrontEnds(t *testing.T) {
	t.Cleanup(func() {
		runOpts.dbus = false
		runOpts.mirror = false
	})

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "run"}
		cmd.Flags().BoolVar(&runOpts.dbus, "dbus", false, "")
		cmd.Flags().BoolVar(&runOpts.mirror, "mirror", false, "")
		return cmd
	}

	tests := []struct {
		name       string
		args       []string
		enabled    bool
		wantBus    bool
		wantMirror bool
	}{
		{"config default on", nil, true, true, false},
		{"config default off", nil, false, false, false},
		{"flag forces bus", []string{"--dbus"}, false, true, false},
		{"flag disables bus", []string{"--dbus=false"}, true, false, false},
		{"mirror overrides default", []string{"--mirror"}, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runOpts.dbus, runOpts.mirror = false, false
			cmd := newCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := config.DefaultConfig()
			cfg.DBus.Enabled = tt.enabled

			useBus, mirror := planFrontEnds(cmd, cfg, true)
			assert.Equal(t, tt.wantBus, useBus)
			assert.Equal(t, tt.wantMirror, mirror)
		})
	}
}

func TestPlanFrontEnds_DemoNeverTouchesTheBus(t *testing.T) {
	useBus, mirror := planFrontEnds(demoCmd, busEnabledConfig(), false)
	assert.False(t, useBus)
	assert.False(t, mirror)
}
