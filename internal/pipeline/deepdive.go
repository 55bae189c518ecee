package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/handover/internal/api"
	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

// deepDiveReply is the per-pass analysis payload. Questions stay raw
// because models return both string and object entries.
type deepDiveReply struct {
	Summary           string          `json:"summary"`
	KeyMechanics      []string        `json:"key_mechanics"`
	FragilePoints     []string        `json:"fragile_points"`
	AtRiskKnowledge   []string        `json:"at_risk_knowledge"`
	Questions         json.RawMessage `json:"questions"`
	CumulativeSummary string          `json:"cumulative_summary"`
}

// deepDiveFanOut builds the per-item sub-workflow: each item is
// analyzed in isolation for up to its type's pass ceiling, and only the
// accumulated reports fan back in.
func (p *Pipeline) deepDiveFanOut() *engine.FanOut {
	return &engine.FanOut{
		Prepare: func(st *session.State) []*engine.ItemState {
			runs := make([]*engine.ItemState, len(st.Items))
			for i, item := range st.Items {
				runs[i] = &engine.ItemState{
					Item:       item,
					PassNumber: 1,
					MaxPasses:  p.profiles.MaxPasses(item.Type),
				}
			}
			return runs
		},
		Route: func(it *engine.ItemState) engine.ItemRoute {
			if it.PassNumber > it.MaxPasses {
				return engine.RouteDone
			}
			return engine.RouteContinue
		},
		Run: p.deepDivePass,
	}
}

// deepDivePass runs one analysis pass over an item. Pass 1 reads cold;
// middle passes hunt for what the first missed; the final pass targets
// tacit knowledge only.
func (p *Pipeline) deepDivePass(ctx context.Context, it *engine.ItemState) error {
	content := truncateContent(it.Item.Content)
	maxQ := p.cfg.Analysis.MaxQuestionsPerItem

	var user string
	switch {
	case it.PassNumber == 1:
		user = fmt.Sprintf(deepDivePass1Template, it.Item.Type, it.Item.Name, content, maxQ)
	case it.PassNumber < it.MaxPasses:
		user = fmt.Sprintf(deepDivePass2Template, it.Item.Type, it.Item.Name, renderReports(it.Previous), content, maxQ)
	default:
		user = fmt.Sprintf(deepDiveFinalTemplate, it.Item.Type, it.Item.Name, renderReports(it.Previous), content, maxQ)
	}

	var reply deepDiveReply
	if err := p.reasoner.CompleteStructured(ctx, deepDiveSystem, user, &reply); err != nil {
		return err
	}

	questions := api.NormalizeQuestions(reply.Questions)
	if len(questions) > maxQ {
		questions = questions[:maxQ]
	}

	report := models.ItemReport{
		ItemID:            it.Item.ID,
		PassNumber:        it.PassNumber,
		Summary:           strings.TrimSpace(reply.Summary),
		Mechanics:         reply.KeyMechanics,
		FragilePoints:     reply.FragilePoints,
		AtRiskKnowledge:   reply.AtRiskKnowledge,
		Questions:         questions,
		CumulativeSummary: chainSummary(it.Previous, it.PassNumber, reply.CumulativeSummary),
	}

	it.Previous = append(it.Previous, report)
	it.Output.Reports = append(it.Output.Reports, report)
	it.PassNumber++
	return nil
}

// chainSummary threads each pass's summary onto the previous chain so
// later passes (and the corpus) see the full analysis arc.
func chainSummary(previous []models.ItemReport, pass int, summary string) string {
	line := fmt.Sprintf("[Pass %d] %s", pass, strings.TrimSpace(summary))
	if len(previous) == 0 {
		return line
	}
	prev := previous[len(previous)-1].CumulativeSummary
	if prev == "" {
		return line
	}
	return prev + "\n" + line
}

// renderReports serializes prior passes for re-reading prompts.
func renderReports(reports []models.ItemReport) string {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "(previous reports unavailable)"
	}
	return string(data)
}
