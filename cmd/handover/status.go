package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

var statusArtifact string

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show session state",
	Long: `Show the state of handover sessions.

Without arguments, lists every session. With a session ID, shows its
stage, the pending question if it is waiting for one, and the stored
artifacts. Use --artifact to print an artifact to stdout:

  handover status hs_ab12cd34 --artifact onboarding_docs.md > docs.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusArtifact, "artifact", "", "Print the named artifact and exit")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		return listSessions(a)
	}
	sessionID := args[0]

	if statusArtifact != "" {
		data, err := a.db.LoadArtifact(sessionID, statusArtifact)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fmt.Errorf("session %s has no artifact %q", sessionID, statusArtifact)
			}
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	return showSession(a, sessionID)
}

func listSessions(a *app) error {
	sessions, err := a.db.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions. Run 'handover run <directory>' to start one.")
		return nil
	}

	fmt.Println("Sessions:")
	for _, s := range sessions {
		elapsed := formatDuration(time.Since(s.UpdatedAt))
		fmt.Printf("  %s  %s  stage=%s  (updated %s ago)\n",
			s.ID, colorStatus(s.Status), s.CurrentStage, elapsed)
	}
	return nil
}

func showSession(a *app, sessionID string) error {
	st, err := a.db.LoadCheckpoint(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("no session %s", sessionID)
		}
		return err
	}

	fmt.Printf("Session: %s\n", st.SessionID)
	fmt.Printf("  Status: %s\n", colorStatus(st.Status))
	fmt.Printf("  Stage:  %s\n", st.CurrentStage)
	if dir := st.Metadata["input_dir"]; dir != "" {
		fmt.Printf("  Input:  %s\n", dir)
	}

	var open, answered int
	for _, q := range st.Backlog {
		switch {
		case q.Status == models.StatusOpen:
			open++
		case q.Answered():
			answered++
		}
	}
	fmt.Printf("  Files: %d   Questions: %d open / %d answered   Rounds: %d   Facts: %d\n",
		len(st.Items), open, answered, len(st.Transcript), len(st.Facts))

	if st.Status == session.StatusSuspended && st.Pending != nil {
		fmt.Println()
		fmt.Printf("%s Waiting on question %d:\n\n", color.YellowString("?"), st.Pending.Round)
		fmt.Printf("  %s\n\n", st.Pending.QuestionText)
		fmt.Printf("Answer with: handover resume %s \"your answer\"\n", st.SessionID)
	}

	if st.Status == session.StatusFailed {
		fmt.Println()
		fmt.Printf("%s Failed at stage %s: %s\n", color.RedString("✗"), st.FailStage, st.FailError)
		fmt.Printf("Restart with: handover run --session %s %s\n", st.SessionID, st.Metadata["input_dir"])
	}

	if names, err := a.db.ListArtifacts(sessionID); err == nil && len(names) > 0 {
		fmt.Println()
		fmt.Println("Artifacts:")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}

	if len(st.Errors) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, e := range st.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

func colorStatus(status string) string {
	switch status {
	case session.StatusCompleted:
		return color.GreenString(status)
	case session.StatusSuspended:
		return color.YellowString(status)
	case session.StatusFailed:
		return color.RedString(status)
	case session.StatusRunning:
		return color.CyanString(status)
	}
	return status
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
