package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <session-id>",
	Short: "Request a running session to stop",
	Long: `Request a graceful stop of a running session.

The engine checks for stop requests between stages, so the session
finishes its current stage, checkpoints, and exits as canceled. Nothing
is lost: restart it later with 'handover run --session <id>'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.signals.RequestStop(args[0]); err != nil {
			return fmt.Errorf("request stop: %w", err)
		}
		fmt.Printf("Stop requested for session %s; it will halt at the next stage boundary.\n", args[0])
		return nil
	},
}
