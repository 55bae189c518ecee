package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/session"
)

var runSessionID string

var runCmd = &cobra.Command{
	Use:   "run <directory>",
	Short: "Analyze a directory of files and start the interview",
	Long: `Analyze every file in a directory and start a handover session.

Each file gets a multi-pass deep dive, the findings are merged and
cross-checked, and the resulting knowledge gaps are reconciled into an
interview backlog. The session then suspends on its first question.

Answer questions with 'handover resume <session-id> "<answer>"'. The
session survives restarts; progress is checkpointed after every stage.

Examples:
  handover run ./finance-model
  handover run ./finance-model --session q3-handoff`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&runSessionID, "session", "", "Session ID (generated if empty)")
}

func runSession(cmd *cobra.Command, args []string) error {
	inputDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input directory: %w", err)
	}
	info, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", inputDir)
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID := runSessionID
	if sessionID == "" {
		sessionID = "hs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	a.signals.Clear(sessionID)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Session %s: analyzing %s\n", color.CyanString(sessionID), inputDir)
	fmt.Println("This runs several analysis passes per file and can take a few minutes.")
	fmt.Println()

	st := session.New(sessionID, map[string]string{"input_dir": inputDir})
	res, err := a.engine.Start(ctx, sessionID, st)
	if err != nil {
		if errors.Is(err, engine.ErrSessionActive) {
			return fmt.Errorf("session %s is already active; resume it or pick another ID", sessionID)
		}
		return err
	}

	printResult(sessionID, res)
	printUsage(a)
	return nil
}

func printResult(sessionID string, res *engine.Result) {
	if res.Suspended != nil {
		p := res.Suspended
		fmt.Printf("%s Question %d (%d more queued)\n\n", color.YellowString("?"), p.Round, p.Remaining)
		fmt.Printf("  %s\n\n", p.QuestionText)
		fmt.Printf("Answer with:\n")
		fmt.Printf("  handover resume %s \"your answer\"\n", sessionID)
		fmt.Printf("Or finish early:\n")
		fmt.Printf("  handover end %s\n", sessionID)
		return
	}

	st := res.Done
	switch st.Status {
	case session.StatusCompleted:
		fmt.Printf("%s Session %s complete\n\n", color.GreenString("✓"), sessionID)
		fmt.Printf("  Files analyzed:   %d\n", len(st.Items))
		fmt.Printf("  Interview rounds: %d\n", len(st.Transcript))
		fmt.Printf("  Facts captured:   %d\n", len(st.Facts))
		fmt.Println()
		fmt.Println("The onboarding package and Q&A context are stored as artifacts.")
		fmt.Printf("Inspect them with: handover status %s\n", sessionID)
	case session.StatusCanceled:
		fmt.Printf("%s Session %s stopped\n", color.YellowString("⚠"), sessionID)
		fmt.Printf("Restart it later with: handover run --session %s %s\n", sessionID, st.Metadata["input_dir"])
	default:
		fmt.Printf("Session %s finished with status %s\n", sessionID, st.Status)
	}

	if len(st.Errors) > 0 {
		fmt.Println()
		fmt.Println("Warnings recorded during the run:")
		for _, e := range st.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}

func printUsage(a *app) {
	if a.client == nil {
		return
	}
	tr := a.client.Tracker()
	in, out := tr.Total()
	if in == 0 && out == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Tokens: %d in / %d out across %d calls (est. $%.2f)\n", in, out, tr.Calls(), tr.Cost())
}
