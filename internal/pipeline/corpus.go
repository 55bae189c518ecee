package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

// runMergeCorpus folds the accumulated deep-dive reports into a single
// analysis corpus and seeds the question backlog from every pass's
// findings. Purely mechanical: no model calls.
func (p *Pipeline) runMergeCorpus(ctx context.Context, st *session.State) (*session.Update, error) {
	if len(st.ItemReports) == 0 {
		return nil, fmt.Errorf("no item reports to merge")
	}

	latest := models.LatestReports(st.ItemReports)

	var sections []string
	upd := &session.Update{}
	for _, item := range st.Items {
		agg := aggregateReports(item.ID, st.ItemReports)
		if final, ok := latest[item.ID]; ok {
			agg.CumulativeSummary = final.CumulativeSummary
		}
		sections = append(sections, renderCorpusSection(item, agg))

		for _, rq := range agg.Questions {
			upd.Backlog = append(upd.Backlog, &models.Question{
				ID:           newQuestionID("q"),
				Text:         rq.Text,
				Origin:       models.OriginPerItem,
				SourceItemID: item.ID,
				Evidence:     questionEvidence(item.ID, rq.Evidence),
				Priority:     models.PriorityP1,
				Status:       models.StatusOpen,
			})
		}
	}

	corpus := strings.Join(sections, "\n\n---\n\n")
	upd.Corpus = session.Str(corpus)

	p.saveArtifact(st.SessionID, "corpus.md", []byte(corpus))
	if data, err := json.MarshalIndent(st.ItemReports, "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "item_reports.json", data)
	}

	return upd, nil
}

// aggregateReports merges every pass for one item in pass order. Later
// passes only add new findings, so the lists concatenate; the summary
// comes from the first pass, which read the file cold.
func aggregateReports(itemID string, all []models.ItemReport) models.ItemReport {
	agg := models.ItemReport{ItemID: itemID}
	seen := map[string]bool{}
	for _, r := range all {
		if r.ItemID != itemID {
			continue
		}
		if agg.Summary == "" {
			agg.Summary = r.Summary
		}
		if r.PassNumber > agg.PassNumber {
			agg.PassNumber = r.PassNumber
			agg.CumulativeSummary = r.CumulativeSummary
		}
		agg.Mechanics = append(agg.Mechanics, r.Mechanics...)
		agg.FragilePoints = append(agg.FragilePoints, r.FragilePoints...)
		agg.AtRiskKnowledge = append(agg.AtRiskKnowledge, r.AtRiskKnowledge...)
		for _, q := range r.Questions {
			key := strings.ToLower(strings.TrimSpace(q.Text))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			agg.Questions = append(agg.Questions, q)
		}
	}
	return agg
}

func renderCorpusSection(item models.SourceItem, agg models.ItemReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## File: %s (%s)\n\n", item.Name, item.Type)
	if agg.Summary != "" {
		fmt.Fprintf(&sb, "**Summary:** %s\n\n", agg.Summary)
	}
	writeBulletList(&sb, "Key mechanics", agg.Mechanics)
	writeBulletList(&sb, "Fragile points", agg.FragilePoints)
	writeBulletList(&sb, "At-risk knowledge", agg.AtRiskKnowledge)
	if agg.CumulativeSummary != "" {
		fmt.Fprintf(&sb, "**Analysis notes:**\n%s\n", agg.CumulativeSummary)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeBulletList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
	sb.WriteString("\n")
}

func questionEvidence(itemID, snippet string) []models.Evidence {
	if snippet == "" {
		return nil
	}
	return []models.Evidence{{ItemID: itemID, Snippet: snippet}}
}
