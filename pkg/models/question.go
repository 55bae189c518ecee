package models

// QuestionOrigin records which stage created a question.
type QuestionOrigin string

const (
	OriginPerItem   QuestionOrigin = "per_item"
	OriginCrossItem QuestionOrigin = "cross_item"
	OriginFollowUp  QuestionOrigin = "follow_up"
)

// QuestionStatus is the lifecycle state of a backlog question.
// Questions are never deleted, only transitioned.
type QuestionStatus string

const (
	StatusOpen                QuestionStatus = "open"
	StatusAnsweredByEvidence  QuestionStatus = "answered_by_evidence"
	StatusAnsweredByInterview QuestionStatus = "answered_by_interview"
	StatusMerged              QuestionStatus = "merged"
	StatusDeprioritized       QuestionStatus = "deprioritized"
)

// QuestionPriority ranks knowledge-loss risk: P0 is total loss risk,
// P1 partial or ambiguous, P2 nice-to-have.
type QuestionPriority string

const (
	PriorityP0 QuestionPriority = "P0"
	PriorityP1 QuestionPriority = "P1"
	PriorityP2 QuestionPriority = "P2"
)

// Rank returns the ascending-risk sort key for a priority (P0 < P1 < P2).
// Unknown priorities sort last.
func (p QuestionPriority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	}
	return 3
}

// ParsePriority maps a raw priority string to a QuestionPriority,
// defaulting to P1 for anything unrecognized.
func ParsePriority(s string) QuestionPriority {
	switch QuestionPriority(s) {
	case PriorityP0, PriorityP1, PriorityP2:
		return QuestionPriority(s)
	}
	return PriorityP1
}

// Question is one entry in the knowledge-gap backlog.
//
// Invariant: Answer is only set when Status is answered_by_evidence or
// answered_by_interview. Merged questions retain their text for audit but
// are excluded from selection.
type Question struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	Origin       QuestionOrigin   `json:"origin"`
	SourceItemID string           `json:"source_item_id,omitempty"`
	Evidence     []Evidence       `json:"evidence,omitempty"`
	Priority     QuestionPriority `json:"priority"`
	Status       QuestionStatus   `json:"status"`
	Answer       string           `json:"answer,omitempty"`
	Confidence   float64          `json:"confidence,omitempty"`
	// MergedInto holds the surviving question's ID when Status is merged.
	MergedInto string `json:"merged_into,omitempty"`
	// SourceTurn is the transcript turn that spawned this question, for
	// follow_up-origin questions. Zero for questions created by analysis.
	SourceTurn int `json:"source_turn,omitempty"`
}

// Answered reports whether the question has been resolved with an answer.
func (q *Question) Answered() bool {
	return q.Status == StatusAnsweredByEvidence || q.Status == StatusAnsweredByInterview
}
