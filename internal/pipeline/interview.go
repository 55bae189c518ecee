package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/handover/internal/backlog"
	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/factlog"
	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

// EndInterviewSignal is the reserved resume input that ends the
// interview early. Remaining open questions are deprioritized, not
// dropped, and the session proceeds to packaging.
const EndInterviewSignal = "[END_INTERVIEW]"

// confidenceScores maps the extractor's verdict to the stored numeric
// confidence.
var confidenceScores = map[string]float64{
	"high":   0.9,
	"medium": 0.6,
	"low":    0.3,
}

type extractReply struct {
	Facts      []string `json:"facts"`
	Confidence string   `json:"confidence"`
	FollowUp   string   `json:"follow_up"`
	Discovered []struct {
		Text     string `json:"text"`
		Priority string `json:"priority"`
	} `json:"discovered_questions"`
}

type selectReply struct {
	SelectedQuestionID string `json:"selected_question_id"`
}

// runInterview drives one round of the interview per invocation. On
// first entry it selects and asks the opening question, suspending the
// session; each resume delivers the employee's answer, which is
// extracted into facts before the next question is selected. The stage
// returns without suspending once the round cap is hit, the open
// backlog drains, or the employee ends the interview.
func (p *Pipeline) runInterview(ctx context.Context, st *session.State) (*session.Update, error) {
	upd := &session.Update{}

	if input, ok := st.TakeResumeInput(); ok {
		done, err := p.handleAnswer(ctx, st, upd, input)
		if err != nil {
			return nil, err
		}
		if done {
			return p.finishInterview(ctx, st, upd)
		}
	}

	combined := combinedBacklog(st, upd)
	candidates := combined.OpenHighPriority()
	rounds := len(st.Transcript) + len(upd.Transcript)

	if rounds >= p.cfg.Interview.MaxRounds || len(candidates) == 0 {
		return p.finishInterview(ctx, st, upd)
	}

	next, err := p.selectNext(ctx, st, upd, candidates)
	if err != nil {
		return nil, err
	}

	conversational, err := p.reasoner.Complete(ctx, rephraseSystem, rephraseUserPrompt(st, upd, next, len(candidates)))
	if err != nil {
		return nil, fmt.Errorf("rephrase question: %w", err)
	}
	conversational = strings.TrimSpace(conversational)
	if conversational == "" {
		conversational = next.Text
	}

	p.persistInterviewArtifacts(st, upd)

	return upd, &engine.Suspension{Payload: session.SuspendPayload{
		QuestionID:   next.ID,
		QuestionText: conversational,
		RawQuestion:  next.Text,
		SourceItem:   next.SourceItemID,
		Round:        rounds + 1,
		Remaining:    len(candidates) - 1,
	}}
}

// handleAnswer processes one resume input: extract facts, settle the
// answered question, and spawn follow-up and discovered questions. The
// bool return reports whether the interview should end.
func (p *Pipeline) handleAnswer(ctx context.Context, st *session.State, upd *session.Update, input string) (bool, error) {
	answer := strings.TrimSpace(input)

	if answer == EndInterviewSignal {
		log.Printf("[pipeline] session %s: interview ended by employee", st.SessionID)
		backlog.New(st.Backlog).DeprioritizeOpen()
		return true, nil
	}

	// An empty answer is a protocol mistake, not interview content:
	// re-suspend on the same question without touching any state.
	if answer == "" {
		if st.Pending != nil {
			return false, &engine.Suspension{Payload: *st.Pending}
		}
		return false, backlog.ErrEmptyAnswer
	}

	pending := st.Pending
	if pending == nil {
		return false, fmt.Errorf("interview resumed with no pending question")
	}

	var reply extractReply
	if err := p.reasoner.CompleteStructured(ctx, extractFactsSystem, extractUserPrompt(pending, answer), &reply); err != nil {
		return false, fmt.Errorf("extract facts: %w", err)
	}

	conf := strings.ToLower(strings.TrimSpace(reply.Confidence))
	score, known := confidenceScores[conf]
	if !known {
		conf, score = "medium", confidenceScores["medium"]
	}

	// The fact log owns st.Facts: dedup may replace entries in place,
	// so the merged slice is written back directly rather than routed
	// through the append reducer.
	facts := factlog.New(st.Facts)
	for _, f := range reply.Facts {
		facts.AddCandidate(f)
	}
	st.Facts = facts.Facts()

	followUp := strings.TrimSpace(reply.FollowUp)
	if strings.EqualFold(followUp, "null") || conf == "high" {
		followUp = ""
	}

	turn := models.InterviewTurn{
		TurnID:         len(st.Transcript) + 1,
		QuestionID:     pending.QuestionID,
		QuestionText:   pending.QuestionText,
		Response:       answer,
		ExtractedFacts: reply.Facts,
		FollowUp:       followUp,
	}
	upd.Transcript = append(upd.Transcript, turn)

	bl := backlog.New(st.Backlog)
	answered := bl.Get(pending.QuestionID)
	if answered != nil {
		answered.Status = models.StatusAnsweredByInterview
		answered.Answer = answer
		answered.Confidence = score
	}

	if followUp != "" {
		fq := &models.Question{
			ID:         newQuestionID("fu"),
			Text:       followUp,
			Origin:     models.OriginFollowUp,
			Priority:   models.PriorityP0,
			Status:     models.StatusOpen,
			SourceTurn: turn.TurnID,
		}
		if answered != nil {
			fq.SourceItemID = answered.SourceItemID
		}
		upd.Backlog = append(upd.Backlog, fq)
	}

	for _, d := range reply.Discovered {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		upd.Backlog = append(upd.Backlog, &models.Question{
			ID:         newQuestionID("d"),
			Text:       text,
			Origin:     models.OriginFollowUp,
			Priority:   models.ParsePriority(d.Priority),
			Status:     models.StatusOpen,
			SourceTurn: turn.TurnID,
		})
	}

	return false, nil
}

// selectNext picks the question for the upcoming round. A follow-up
// spawned by the immediately preceding answer always goes first;
// otherwise the model picks for topical continuity, falling back to
// strict priority order when its pick is not a live candidate.
func (p *Pipeline) selectNext(ctx context.Context, st *session.State, upd *session.Update, candidates []*models.Question) (*models.Question, error) {
	lastTurn := 0
	if n := len(st.Transcript) + len(upd.Transcript); n > 0 {
		turns := append(append([]models.InterviewTurn{}, st.Transcript...), upd.Transcript...)
		lastTurn = turns[n-1].TurnID
	}
	if lastTurn > 0 {
		for _, c := range candidates {
			if c.Origin == models.OriginFollowUp && c.SourceTurn == lastTurn {
				return c, nil
			}
		}
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	var reply selectReply
	if err := p.reasoner.CompleteStructured(ctx, selectQuestionSystem, selectUserPrompt(st, upd, candidates), &reply); err != nil {
		return nil, fmt.Errorf("select next question: %w", err)
	}
	for _, c := range candidates {
		if c.ID == reply.SelectedQuestionID {
			return c, nil
		}
	}
	return candidates[0], nil
}

// finishInterview summarizes the transcript and closes the stage. The
// summary call degrades to a raw transcript dump so a model failure at
// the very end never loses the interview.
func (p *Pipeline) finishInterview(ctx context.Context, st *session.State, upd *session.Update) (*session.Update, error) {
	turns := append(append([]models.InterviewTurn{}, st.Transcript...), upd.Transcript...)

	summary := "No interview rounds were completed."
	if len(turns) > 0 {
		dump := renderTranscript(turns)
		reply, err := p.reasoner.Complete(ctx, interviewSummarySystem, dump)
		if err != nil || strings.TrimSpace(reply) == "" {
			log.Printf("[pipeline] session %s: interview summary degraded to transcript dump: %v", st.SessionID, err)
			summary = "Interview summary unavailable; raw transcript follows.\n\n" + dump
		} else {
			summary = strings.TrimSpace(reply)
		}
	}
	upd.InterviewSummary = session.Str(summary)

	p.persistInterviewArtifacts(st, upd)
	p.saveArtifact(st.SessionID, "interview_summary.md", []byte(summary))
	return upd, nil
}

func (p *Pipeline) persistInterviewArtifacts(st *session.State, upd *session.Update) {
	turns := append(append([]models.InterviewTurn{}, st.Transcript...), upd.Transcript...)
	if data, err := json.MarshalIndent(turns, "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "transcript.json", data)
	}
	if data, err := json.MarshalIndent(st.Facts, "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "extracted_facts.json", data)
	}
	if data, err := json.MarshalIndent(combinedBacklog(st, upd).Questions(), "", "  "); err == nil {
		p.saveArtifact(st.SessionID, "question_backlog.json", data)
	}
}

// combinedBacklog views the persisted backlog plus this invocation's
// not-yet-merged additions, so selection sees questions spawned by the
// answer just processed.
func combinedBacklog(st *session.State, upd *session.Update) *backlog.Backlog {
	qs := append(append([]*models.Question{}, st.Backlog...), upd.Backlog...)
	return backlog.New(qs)
}

func extractUserPrompt(pending *session.SuspendPayload, answer string) string {
	question := pending.RawQuestion
	if question == "" {
		question = pending.QuestionText
	}
	return fmt.Sprintf("Question asked:\n%s\n\nEmployee's answer:\n%s", question, answer)
}

func selectUserPrompt(st *session.State, upd *session.Update, candidates []*models.Question) string {
	type entry struct {
		ID       string `json:"question_id"`
		Text     string `json:"text"`
		Priority string `json:"priority"`
		Origin   string `json:"origin"`
	}
	entries := make([]entry, len(candidates))
	for i, c := range candidates {
		entries[i] = entry{ID: c.ID, Text: c.Text, Priority: string(c.Priority), Origin: string(c.Origin)}
	}
	data, _ := json.MarshalIndent(entries, "", "  ")

	turns := append(append([]models.InterviewTurn{}, st.Transcript...), upd.Transcript...)
	return fmt.Sprintf("Open questions:\n%s\n\nConversation so far:\n%s", data, renderRecentTranscript(turns, 3))
}

func rephraseUserPrompt(st *session.State, upd *session.Update, next *models.Question, open int) string {
	turns := append(append([]models.InterviewTurn{}, st.Transcript...), upd.Transcript...)

	var sb strings.Builder
	if len(turns) == 0 {
		sb.WriteString("This is the FIRST question of the interview.\n\n")
	} else {
		fmt.Fprintf(&sb, "Conversation so far:\n%s\n\n", renderRecentTranscript(turns, 3))
	}
	if st.CrossSummary != "" {
		fmt.Fprintf(&sb, "Project context from your file analysis:\n%s\n\n", st.CrossSummary)
	}
	fmt.Fprintf(&sb, "Raw question to ask:\n%s\n\n", next.Text)
	fmt.Fprintf(&sb, "Questions remaining after this one: %d\n", open-1)
	return sb.String()
}

// renderTranscript renders the full interview as interviewer/employee
// exchanges.
func renderTranscript(turns []models.InterviewTurn) string {
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "Interviewer: %s\nEmployee: %s\n\n", t.QuestionText, t.Response)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderRecentTranscript(turns []models.InterviewTurn, n int) string {
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return renderTranscript(turns)
}
