// Package session defines the durable per-session workflow state, the
// merge policy applied to stage outputs, and the checkpoint store
// contract.
package session

import (
	"errors"

	"github.com/ShayCichocki/handover/pkg/models"
)

// Status values for a session.
const (
	StatusRunning   = "running"
	StatusSuspended = "suspended"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// ErrNotFound indicates no checkpoint exists for a session ID.
var ErrNotFound = errors.New("session not found")

// SuspendPayload describes what external input a suspended session is
// waiting for.
type SuspendPayload struct {
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	RawQuestion  string `json:"raw_question,omitempty"`
	SourceItem   string `json:"source_item,omitempty"`
	Round        int    `json:"round"`
	Remaining    int    `json:"remaining"`
}

// State is the aggregate workflow state for one session: the unit of
// checkpointing and resumability. List fields marked "append" in the
// merge policy are only ever appended to by stage updates, so they are
// safe to accumulate across concurrent fan-out writers.
type State struct {
	SessionID string            `json:"session_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	Items       []models.SourceItem  `json:"items,omitempty"`
	ItemReports []models.ItemReport  `json:"item_reports,omitempty"` // append
	Corpus      string               `json:"corpus,omitempty"`
	CrossSummary string              `json:"cross_summary,omitempty"`

	Backlog []*models.Question `json:"backlog,omitempty"`

	Transcript       []models.InterviewTurn `json:"transcript,omitempty"` // append
	Facts            []string               `json:"facts,omitempty"`      // append
	InterviewSummary string                 `json:"interview_summary,omitempty"`

	Package   *models.OnboardingPackage `json:"package,omitempty"`
	QAContext string                    `json:"qa_context,omitempty"`

	Status       string   `json:"status"`
	CurrentStage string   `json:"current_stage,omitempty"`
	FailStage    string   `json:"fail_stage,omitempty"`
	FailError    string   `json:"fail_error,omitempty"`
	Errors       []string `json:"errors,omitempty"` // append

	// Pending is set while the session is suspended awaiting external
	// input; nil otherwise.
	Pending *SuspendPayload `json:"pending,omitempty"`

	// resumeInput carries the externally supplied value into the
	// re-entered stage. It is transient and consumed exactly once.
	resumeInput *string
}

// New creates a fresh running state for a session.
func New(sessionID string, metadata map[string]string) *State {
	return &State{
		SessionID: sessionID,
		Metadata:  metadata,
		Status:    StatusRunning,
	}
}

// SetResumeInput stores the external input delivered by a resume call.
func (s *State) SetResumeInput(input string) {
	s.resumeInput = &input
}

// TakeResumeInput returns the pending external input, consuming it.
// The second return is false when no input is available.
func (s *State) TakeResumeInput() (string, bool) {
	if s.resumeInput == nil {
		return "", false
	}
	v := *s.resumeInput
	s.resumeInput = nil
	return v, true
}

// Update is a partial state update produced by a stage. Scalar fields
// are pointers and overwrite when non-nil; slice fields append. Stages
// never overwrite the append-only lists.
type Update struct {
	Items        []models.SourceItem
	ItemReports  []models.ItemReport
	Corpus       *string
	CrossSummary *string

	Backlog []*models.Question // appended; existing entries mutate in place

	Transcript       []models.InterviewTurn
	Facts            []string
	InterviewSummary *string

	Package   *models.OnboardingPackage
	QAContext *string

	Errors []string
}

// Apply merges an update into the state per the declared policy:
// scalars overwrite, list fields append.
func (s *State) Apply(u *Update) {
	if u == nil {
		return
	}
	if u.Items != nil {
		s.Items = u.Items
	}
	s.ItemReports = append(s.ItemReports, u.ItemReports...)
	if u.Corpus != nil {
		s.Corpus = *u.Corpus
	}
	if u.CrossSummary != nil {
		s.CrossSummary = *u.CrossSummary
	}
	s.Backlog = append(s.Backlog, u.Backlog...)
	s.Transcript = append(s.Transcript, u.Transcript...)
	s.Facts = append(s.Facts, u.Facts...)
	if u.InterviewSummary != nil {
		s.InterviewSummary = *u.InterviewSummary
	}
	if u.Package != nil {
		s.Package = u.Package
	}
	if u.QAContext != nil {
		s.QAContext = *u.QAContext
	}
	s.Errors = append(s.Errors, u.Errors...)
}

// ItemOutput is the fan-in projection of one item sub-workflow: only
// append-safe list fields are exposed to the parent merge, never the
// sub-workflow's scalar scratch state (pass counters, caps).
type ItemOutput struct {
	Reports []models.ItemReport `json:"reports"`
}

// Str is a convenience for building scalar overwrite fields.
func Str(s string) *string {
	return &s
}
