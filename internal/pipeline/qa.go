package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/handover/internal/session"
)

// runQAContext assembles the system prompt for a downstream Q&A
// assistant over the finished handover. Pure assembly, no model calls:
// the knowledge base is already in its final form.
func (p *Pipeline) runQAContext(ctx context.Context, st *session.State) (*session.Update, error) {
	var sb strings.Builder

	sb.WriteString(`You are a knowledge assistant for a project handover. A departing employee's files were analyzed and the employee was interviewed; everything learned is below. Answer questions from the new owner using ONLY this knowledge base. When the knowledge base does not cover something, say so plainly rather than guessing, and point to the closest related fact if one exists.

`)

	if st.Package != nil && st.Package.Abstract != "" {
		fmt.Fprintf(&sb, "## Project\n\n%s\n\n", st.Package.Abstract)
	}
	if st.CrossSummary != "" {
		fmt.Fprintf(&sb, "## How the files fit together\n\n%s\n\n", st.CrossSummary)
	}
	if st.Corpus != "" {
		fmt.Fprintf(&sb, "## File analyses\n\n%s\n\n", st.Corpus)
	}
	if st.InterviewSummary != "" {
		fmt.Fprintf(&sb, "## Interview summary\n\n%s\n\n", st.InterviewSummary)
	}

	if len(st.Facts) > 0 {
		sb.WriteString("## Facts from the interview\n\n")
		for _, f := range st.Facts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	if answered := answeredQuestions(st); len(answered) > 0 {
		sb.WriteString("## Question and answer record\n\n")
		for _, q := range answered {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", q.Text, q.Answer)
		}
	}

	if open := unansweredQuestions(st); len(open) > 0 {
		sb.WriteString("## Known gaps (never asked or never answered)\n\n")
		for _, q := range open {
			fmt.Fprintf(&sb, "- %s\n", q.Text)
		}
		sb.WriteString("\n")
	}

	qaContext := strings.TrimRight(sb.String(), "\n") + "\n"
	p.saveArtifact(st.SessionID, "qa_system_prompt.txt", []byte(qaContext))

	return &session.Update{QAContext: session.Str(qaContext)}, nil
}
