package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/tui"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play a scripted sequence of toasts",
	Long: `Open the TUI and raise four toasts in quick succession.

The stack holds three toasts, so the fourth pushes the first one out without
its exit animation. The rest time out on their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProgram(cmd, demoScript(), false)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// demoScript raises A, B, C and D a short moment apart.
func demoScript() []tui.Step {
	return []tui.Step{
		{After: 300 * time.Millisecond, Request: model.Request{
			Kind: model.KindSuccess, Title: "A: Listing published", Message: "Your listing is now visible to buyers.",
		}},
		{After: 700 * time.Millisecond, Request: model.Request{
			Kind: model.KindInfo, Title: "B: Syncing", Message: "Fetching the latest orders.",
		}},
		{After: 700 * time.Millisecond, Request: model.Request{
			Kind: model.KindWarning, Title: "C: Missing photo", Message: "Add at least one image before submitting.",
		}},
		{After: 700 * time.Millisecond, Request: model.Request{
			Kind: model.KindError, Title: "D: Upload failed", Message: "The server rejected the request.", Duration: 5 * time.Second,
		}},
	}
}
