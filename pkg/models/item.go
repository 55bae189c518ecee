// Package models defines the artifact types that flow through the
// offboarding pipeline: parsed source items, per-item analysis reports,
// interview turns, and the final onboarding package.
package models

import (
	"crypto/md5"
	"fmt"
	"path/filepath"
	"strings"
)

// Evidence points at a specific location inside a parsed item,
// e.g. "Sheet: Revenue", "line 42".
type Evidence struct {
	ItemID   string `json:"item_id"`
	Location string `json:"location,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

// SourceItem is the parsed form of one uploaded file.
type SourceItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	References []string `json:"references,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	RawPath    string   `json:"raw_path,omitempty"`
}

// MakeItemID derives a deterministic short ID from a filename.
func MakeItemID(filename string) string {
	slug := strings.ToLower(strings.ReplaceAll(filename, " ", "_"))
	sum := md5.Sum([]byte(slug))
	name := slug
	if ext := filepath.Ext(slug); ext != "" {
		name = strings.TrimSuffix(slug, ext)
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return fmt.Sprintf("%s_%x", name, sum[:3])
}

// ItemReport is the output of one pass of the per-item deep dive.
// Multiple reports per item accumulate (one per pass); only the highest
// pass number per item is authoritative downstream.
type ItemReport struct {
	ItemID            string            `json:"item_id"`
	PassNumber        int               `json:"pass_number"`
	Summary           string            `json:"summary"`
	Mechanics         []string          `json:"mechanics,omitempty"`
	FragilePoints     []string          `json:"fragile_points,omitempty"`
	AtRiskKnowledge   []string          `json:"at_risk_knowledge,omitempty"`
	Questions         []ReportQuestion  `json:"questions,omitempty"`
	CumulativeSummary string            `json:"cumulative_summary,omitempty"`
}

// ReportQuestion is a raw knowledge-gap question as extracted during a
// deep-dive pass, before it is promoted into the backlog.
type ReportQuestion struct {
	Text     string `json:"text"`
	Evidence string `json:"evidence,omitempty"`
}

// LatestReports reduces an accumulated report list to the authoritative
// (highest pass number) report per item, keyed by item ID.
func LatestReports(reports []ItemReport) map[string]ItemReport {
	latest := make(map[string]ItemReport)
	for _, r := range reports {
		if cur, ok := latest[r.ItemID]; !ok || r.PassNumber > cur.PassNumber {
			latest[r.ItemID] = r
		}
	}
	return latest
}

// InterviewTurn is one round of the interview: the question asked, the
// answer given, and what was extracted from it. The transcript is
// append-only.
type InterviewTurn struct {
	TurnID         int      `json:"turn_id"`
	QuestionID     string   `json:"question_id"`
	QuestionText   string   `json:"question_text"`
	Response       string   `json:"response"`
	ExtractedFacts []string `json:"extracted_facts,omitempty"`
	FollowUp       string   `json:"follow_up,omitempty"`
}

// OnboardingPackage is the final deliverable assembled after the
// interview completes.
type OnboardingPackage struct {
	Abstract        string     `json:"abstract"`
	Introduction    string     `json:"introduction"`
	Details         string     `json:"details"`
	FAQ             []FAQEntry `json:"faq,omitempty"`
	RisksAndGotchas []string   `json:"risks_and_gotchas,omitempty"`
}

// FAQEntry is one question/answer pair in the package FAQ.
type FAQEntry struct {
	Q string `json:"q"`
	A string `json:"a"`
}
