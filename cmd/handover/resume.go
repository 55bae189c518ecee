package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id> [answer]",
	Short: "Answer the pending interview question",
	Long: `Deliver an answer to a suspended session's pending question.

The answer can be passed as an argument or piped on stdin, which is
handier for long answers:

  handover resume hs_ab12cd34 "Dana retrains it on the first Monday"
  cat answer.txt | handover resume hs_ab12cd34

The session picks up exactly where it suspended: the answer is mined
for facts, vague answers spawn follow-ups, and the next question (or
the finished package) comes back.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	var answer string
	if len(args) > 1 {
		answer = args[1]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read answer from stdin: %w", err)
		}
		answer = string(data)
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer is empty; pass it as an argument or pipe it on stdin")
	}

	return deliverInput(sessionID, answer)
}

// deliverInput resumes a session with external input and prints the
// outcome. Shared by resume and end.
func deliverInput(sessionID, input string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := a.engine.Resume(ctx, sessionID, input)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoSuspend):
			return fmt.Errorf("session %s is not waiting for input (check 'handover status %s')", sessionID, sessionID)
		case errors.Is(err, engine.ErrSessionBusy):
			return fmt.Errorf("session %s is already being resumed in another process", sessionID)
		case errors.Is(err, session.ErrNotFound):
			return fmt.Errorf("no session %s (see 'handover status' for the list)", sessionID)
		}
		return err
	}

	printResult(sessionID, res)
	printUsage(a)
	return nil
}
