// Package backlog implements the shared ledger of knowledge-gap
// questions. Entries are append-only; status and priority mutate in
// place and questions are never physically deleted.
package backlog

import (
	"errors"
	"sort"

	"github.com/ShayCichocki/handover/pkg/models"
)

// ErrEmptyAnswer indicates an answer decision carried no text. The
// question it targeted is left unmodified.
var ErrEmptyAnswer = errors.New("answer decision with empty text")

// DecisionAction is the kind of reconciliation decision for a question.
type DecisionAction string

const (
	ActionKeep   DecisionAction = "keep"
	ActionMerge  DecisionAction = "merge"
	ActionAnswer DecisionAction = "answer"
)

// Decision is one reconciliation outcome for a single question.
type Decision struct {
	Action DecisionAction
	// Priority applies to keep decisions.
	Priority models.QuestionPriority
	// IntoID applies to merge decisions: the surviving question's ID.
	IntoID string
	// Answer applies to answer decisions.
	Answer string
}

// Backlog is an ordered sequence of questions. It is owned by exactly
// one session's workflow state; stages mutate it sequentially, and
// fan-out writers only contribute new questions through append reducers.
type Backlog struct {
	questions []*models.Question
}

// New builds a backlog around an existing question slice, preserving
// insertion order.
func New(questions []*models.Question) *Backlog {
	return &Backlog{questions: questions}
}

// Append adds questions to the end of the backlog.
func (b *Backlog) Append(qs ...*models.Question) {
	b.questions = append(b.questions, qs...)
}

// Questions returns the backing slice in insertion order.
func (b *Backlog) Questions() []*models.Question {
	return b.questions
}

// Len returns the number of questions, regardless of status.
func (b *Backlog) Len() int {
	return len(b.questions)
}

// Get returns the question with the given ID, or nil.
func (b *Backlog) Get(id string) *models.Question {
	for _, q := range b.questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// ApplyDecision applies a reconciliation decision to one question.
// Unknown IDs are left untouched rather than erroring: a stage that does
// not mention a question must not silently drop it. An answer decision
// with empty text violates the answer invariant and leaves the question
// unmodified.
func (b *Backlog) ApplyDecision(id string, d Decision) error {
	q := b.Get(id)
	if q == nil {
		return nil
	}

	switch d.Action {
	case ActionKeep:
		if d.Priority != "" {
			q.Priority = d.Priority
		}
	case ActionMerge:
		q.Status = models.StatusMerged
		q.MergedInto = d.IntoID
	case ActionAnswer:
		if d.Answer == "" {
			return ErrEmptyAnswer
		}
		q.Status = models.StatusAnsweredByEvidence
		q.Answer = d.Answer
	}
	return nil
}

// EnforceCap keeps at most max questions open: open questions are sorted
// by ascending risk (P0 first, ties by insertion order), the first max
// stay open, and the remainder (the lowest-priority end) become
// deprioritized. The sort is stable, so re-applying with the same max is
// a no-op, and non-open questions are never touched.
func (b *Backlog) EnforceCap(max int) {
	var open []*models.Question
	for _, q := range b.questions {
		if q.Status == models.StatusOpen {
			open = append(open, q)
		}
	}
	if len(open) <= max {
		return
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].Priority.Rank() < open[j].Priority.Rank()
	})

	for _, q := range open[max:] {
		q.Status = models.StatusDeprioritized
	}
}

// OpenCount returns how many questions are currently open.
func (b *Backlog) OpenCount() int {
	n := 0
	for _, q := range b.questions {
		if q.Status == models.StatusOpen {
			n++
		}
	}
	return n
}

// OpenHighPriority returns open P0/P1 questions sorted P0 first, ties by
// insertion order. This is the interview's candidate set.
func (b *Backlog) OpenHighPriority() []*models.Question {
	var out []*models.Question
	for _, q := range b.questions {
		if q.Status != models.StatusOpen {
			continue
		}
		if q.Priority == models.PriorityP0 || q.Priority == models.PriorityP1 {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

// DeprioritizeOpen transitions every remaining open question to
// deprioritized. Used when the interview is ended early.
func (b *Backlog) DeprioritizeOpen() {
	for _, q := range b.questions {
		if q.Status == models.StatusOpen {
			q.Status = models.StatusDeprioritized
		}
	}
}
