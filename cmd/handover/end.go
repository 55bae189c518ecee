package main

import (
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/handover/internal/pipeline"
)

var endCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End the interview early and build the package",
	Long: `End a suspended interview without answering the remaining questions.

Unanswered questions are kept in the record as known gaps rather than
dropped, and the session proceeds straight to packaging: the summary,
onboarding package, and Q&A context are built from everything captured
so far.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deliverInput(args[0], pipeline.EndInterviewSignal)
	},
}
