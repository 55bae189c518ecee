package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ShayCichocki/handover/internal/backlog"
	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

type reconcileReply struct {
	Decisions []struct {
		ID       string `json:"id"`
		Action   string `json:"action"`
		Priority string `json:"priority"`
		IntoID   string `json:"into_id"`
		Answer   string `json:"answer"`
	} `json:"decisions"`
}

// runReconcile deduplicates and re-prioritizes the backlog before the
// interview, then enforces the open-question cap. Reconciliation has a
// graceful fallback: if the model call fails, every question keeps its
// seeded priority and only the cap is applied.
func (p *Pipeline) runReconcile(ctx context.Context, st *session.State) (*session.Update, error) {
	bl := backlog.New(st.Backlog)
	upd := &session.Update{}

	var reply reconcileReply
	err := p.reasoner.CompleteStructured(ctx, reconcileSystem, reconcileUserPrompt(st), &reply)
	if err != nil {
		log.Printf("[pipeline] session %s: reconcile degraded to cap-only: %v", st.SessionID, err)
		upd.Errors = append(upd.Errors, fmt.Sprintf("reconcile degraded to cap-only: %v", err))
	} else {
		for _, d := range reply.Decisions {
			decision := backlog.Decision{
				Action:   backlog.DecisionAction(d.Action),
				Priority: models.QuestionPriority(d.Priority),
				IntoID:   d.IntoID,
				Answer:   d.Answer,
			}
			if err := bl.ApplyDecision(d.ID, decision); err != nil {
				if errors.Is(err, backlog.ErrEmptyAnswer) {
					upd.Errors = append(upd.Errors, fmt.Sprintf("reconcile: question %s: %v", d.ID, err))
					continue
				}
				return nil, fmt.Errorf("reconcile decision for %s: %w", d.ID, err)
			}
		}
	}

	bl.EnforceCap(p.cfg.Interview.MaxOpenQuestions)

	if data, err := json.MarshalIndent(st.Backlog, "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "question_backlog.json", data)
	}
	return upd, nil
}

func reconcileUserPrompt(st *session.State) string {
	type entry struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		Origin   string `json:"origin"`
		Source   string `json:"source_item,omitempty"`
		Evidence string `json:"evidence,omitempty"`
		Priority string `json:"priority"`
	}
	var entries []entry
	for _, q := range st.Backlog {
		if q.Status != models.StatusOpen {
			continue
		}
		e := entry{
			ID:       q.ID,
			Text:     q.Text,
			Origin:   string(q.Origin),
			Source:   q.SourceItemID,
			Priority: string(q.Priority),
		}
		if len(q.Evidence) > 0 {
			e.Evidence = q.Evidence[0].Snippet
		}
		entries = append(entries, e)
	}
	data, _ := json.MarshalIndent(entries, "", "  ")

	return fmt.Sprintf(`Project-wide analysis summary:

%s

Open questions to reconcile:

%s`, st.CrossSummary, data)
}
