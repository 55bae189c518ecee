package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

type crossReply struct {
	Summary   string `json:"summary"`
	Questions []struct {
		Text     string `json:"text"`
		Priority string `json:"priority"`
		Evidence string `json:"evidence"`
	} `json:"questions"`
}

// runCrossAnalysis reads the whole corpus at once and surfaces the
// gaps that only appear across file boundaries. A failure here loses
// analysis the interview depends on, so it fails the session.
func (p *Pipeline) runCrossAnalysis(ctx context.Context, st *session.State) (*session.Update, error) {
	user := fmt.Sprintf("Per-file analysis reports for the project:\n\n%s", st.Corpus)

	var reply crossReply
	if err := p.reasoner.CompleteStructured(ctx, crossAnalysisSystem, user, &reply); err != nil {
		return nil, fmt.Errorf("cross analysis: %w", err)
	}

	upd := &session.Update{CrossSummary: session.Str(reply.Summary)}
	for _, q := range reply.Questions {
		if q.Text == "" {
			continue
		}
		question := &models.Question{
			ID:       newQuestionID("x"),
			Text:     q.Text,
			Origin:   models.OriginCrossItem,
			Priority: models.ParsePriority(q.Priority),
			Status:   models.StatusOpen,
		}
		if q.Evidence != "" {
			question.Evidence = []models.Evidence{{Snippet: q.Evidence}}
		}
		upd.Backlog = append(upd.Backlog, question)
	}

	p.saveArtifact(st.SessionID, "cross_analysis.md", []byte(reply.Summary))
	return upd, nil
}
