package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "handover",
	Short: "Offboarding knowledge capture",
	Long: `Handover captures the knowledge a departing employee would otherwise
take with them.

Point it at a directory of their project files. Each file is analyzed in
multiple passes, the findings are merged and cross-checked, and the open
knowledge gaps become an interactive interview. The interview survives
process restarts: answer questions at your own pace with 'handover resume'.

The result is an onboarding package for the new owner plus a Q&A context
that lets an assistant answer questions over everything that was captured.

Typical flow:
  handover run ./their-files      # analyze and get the first question
  handover resume <id> "answer"   # answer questions one at a time
  handover end <id>               # stop early; remaining gaps are recorded
  handover status                 # see where every session stands`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
