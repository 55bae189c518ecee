package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

type packageReply struct {
	Abstract        string            `json:"abstract"`
	Introduction    string            `json:"introduction"`
	Details         string            `json:"details"`
	FAQ             []models.FAQEntry `json:"faq"`
	RisksAndGotchas []string          `json:"risks_and_gotchas"`
}

// runPackage assembles the final onboarding package from the full
// knowledge base. This is the deliverable, so a model failure here
// fails the session rather than shipping an empty package.
func (p *Pipeline) runPackage(ctx context.Context, st *session.State) (*session.Update, error) {
	var reply packageReply
	if err := p.reasoner.CompleteStructured(ctx, packageSystem, packageUserPrompt(st), &reply); err != nil {
		return nil, fmt.Errorf("assemble package: %w", err)
	}

	pkg := &models.OnboardingPackage{
		Abstract:        strings.TrimSpace(reply.Abstract),
		Introduction:    strings.TrimSpace(reply.Introduction),
		Details:         strings.TrimSpace(reply.Details),
		FAQ:             reply.FAQ,
		RisksAndGotchas: reply.RisksAndGotchas,
	}

	if data, err := json.MarshalIndent(pkg, "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "package.json", data)
	}
	p.saveArtifact(st.SessionID, "onboarding_docs.md", []byte(renderPackageMarkdown(pkg)))

	return &session.Update{Package: pkg}, nil
}

// packageUserPrompt lays out the complete knowledge base: corpus,
// cross-file summary, interview outcomes, and the settled backlog.
func packageUserPrompt(st *session.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Per-file analysis\n\n%s\n\n", st.Corpus)
	if st.CrossSummary != "" {
		fmt.Fprintf(&sb, "# Cross-file analysis\n\n%s\n\n", st.CrossSummary)
	}
	if st.InterviewSummary != "" {
		fmt.Fprintf(&sb, "# Interview summary\n\n%s\n\n", st.InterviewSummary)
	}

	if len(st.Facts) > 0 {
		sb.WriteString("# Extracted facts\n\n")
		for _, f := range st.Facts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	answered := answeredQuestions(st)
	if len(answered) > 0 {
		sb.WriteString("# Answered questions\n\n")
		for _, q := range answered {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", q.Text, q.Answer)
		}
	}

	unanswered := unansweredQuestions(st)
	if len(unanswered) > 0 {
		sb.WriteString("# Questions that remain unanswered (flag these as open risks)\n\n")
		for _, q := range unanswered {
			fmt.Fprintf(&sb, "- [%s] %s\n", q.Priority, q.Text)
		}
	}

	return sb.String()
}

func answeredQuestions(st *session.State) []*models.Question {
	var out []*models.Question
	for _, q := range st.Backlog {
		if q.Answered() {
			out = append(out, q)
		}
	}
	return out
}

func unansweredQuestions(st *session.State) []*models.Question {
	var out []*models.Question
	for _, q := range st.Backlog {
		if q.Status == models.StatusOpen || q.Status == models.StatusDeprioritized {
			out = append(out, q)
		}
	}
	return out
}

// renderPackageMarkdown renders the package as a standalone onboarding
// document.
func renderPackageMarkdown(pkg *models.OnboardingPackage) string {
	var sb strings.Builder

	sb.WriteString("# Onboarding Package\n\n")
	if pkg.Abstract != "" {
		fmt.Fprintf(&sb, "## Abstract\n\n%s\n\n", pkg.Abstract)
	}
	if pkg.Introduction != "" {
		fmt.Fprintf(&sb, "## Introduction\n\n%s\n\n", pkg.Introduction)
	}
	if pkg.Details != "" {
		fmt.Fprintf(&sb, "## Details\n\n%s\n\n", pkg.Details)
	}
	if len(pkg.FAQ) > 0 {
		sb.WriteString("## FAQ\n\n")
		for _, e := range pkg.FAQ {
			fmt.Fprintf(&sb, "**Q: %s**\n\n%s\n\n", e.Q, e.A)
		}
	}
	if len(pkg.RisksAndGotchas) > 0 {
		sb.WriteString("## Risks and Gotchas\n\n")
		for _, r := range pkg.RisksAndGotchas {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
