package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/handover/pkg/models"
)

func TestApplyMergePolicy(t *testing.T) {
	st := New("s1", nil)
	st.Corpus = "old corpus"
	st.Facts = []string{"existing fact"}
	st.ItemReports = []models.ItemReport{{ItemID: "a", PassNumber: 1}}

	st.Apply(&Update{
		Corpus:      Str("new corpus"),
		Facts:       []string{"new fact"},
		ItemReports: []models.ItemReport{{ItemID: "b", PassNumber: 1}},
	})

	if st.Corpus != "new corpus" {
		t.Errorf("scalar field not overwritten: %q", st.Corpus)
	}
	wantFacts := []string{"existing fact", "new fact"}
	if diff := cmp.Diff(wantFacts, st.Facts); diff != "" {
		t.Errorf("facts not appended (-want +got):\n%s", diff)
	}
	if len(st.ItemReports) != 2 {
		t.Errorf("reports: got %d, want 2 (append, never overwrite)", len(st.ItemReports))
	}
}

func TestApplyNilScalarLeavesValue(t *testing.T) {
	st := New("s1", nil)
	st.CrossSummary = "keep me"
	st.Apply(&Update{Facts: []string{"f"}})
	if st.CrossSummary != "keep me" {
		t.Errorf("unset scalar overwritten: %q", st.CrossSummary)
	}
}

func TestResumeInputConsumedOnce(t *testing.T) {
	st := New("s1", nil)
	if _, ok := st.TakeResumeInput(); ok {
		t.Fatal("fresh state should have no resume input")
	}
	st.SetResumeInput("an answer")
	got, ok := st.TakeResumeInput()
	if !ok || got != "an answer" {
		t.Fatalf("TakeResumeInput = %q, %v", got, ok)
	}
	if _, ok := st.TakeResumeInput(); ok {
		t.Error("resume input not consumed")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	st := New("s1", map[string]string{"project": "forecasting"})
	st.Status = StatusSuspended
	st.Pending = &SuspendPayload{QuestionID: "q1", QuestionText: "why 0.3?", Round: 1}
	st.Backlog = []*models.Question{{
		ID: "q1", Text: "why 0.3?", Origin: models.OriginPerItem,
		Priority: models.PriorityP0, Status: models.StatusOpen,
	}}
	st.SetResumeInput("should not survive")

	if err := store.SaveCheckpoint(st); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	got, err := store.LoadCheckpoint("s1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}

	if got.Status != StatusSuspended || got.Pending == nil || got.Pending.QuestionID != "q1" {
		t.Errorf("suspension not preserved: status=%s pending=%+v", got.Status, got.Pending)
	}
	if len(got.Backlog) != 1 || got.Backlog[0].Priority != models.PriorityP0 {
		t.Errorf("backlog not preserved: %+v", got.Backlog)
	}
	if _, ok := got.TakeResumeInput(); ok {
		t.Error("transient resume input leaked through checkpoint")
	}

	if _, err := store.LoadCheckpoint("missing"); err != ErrNotFound {
		t.Errorf("LoadCheckpoint(missing) err = %v, want ErrNotFound", err)
	}
}
