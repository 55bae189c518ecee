package backlog

import (
	"testing"

	"github.com/ShayCichocki/handover/pkg/models"
)

func q(id string, prio models.QuestionPriority, status models.QuestionStatus) *models.Question {
	return &models.Question{
		ID:       id,
		Text:     "question " + id,
		Origin:   models.OriginPerItem,
		Priority: prio,
		Status:   status,
	}
}

func statuses(b *Backlog) map[string]models.QuestionStatus {
	out := make(map[string]models.QuestionStatus)
	for _, q := range b.Questions() {
		out[q.ID] = q.Status
	}
	return out
}

func TestEnforceCap(t *testing.T) {
	tests := []struct {
		name     string
		setup    []*models.Question
		max      int
		wantOpen []string
	}{
		{
			name: "cap keeps highest risk first",
			setup: []*models.Question{
				q("a", models.PriorityP2, models.StatusOpen),
				q("b", models.PriorityP0, models.StatusOpen),
				q("c", models.PriorityP1, models.StatusOpen),
			},
			max:      2,
			wantOpen: []string{"b", "c"},
		},
		{
			name: "ties broken by insertion order",
			setup: []*models.Question{
				q("a", models.PriorityP1, models.StatusOpen),
				q("b", models.PriorityP1, models.StatusOpen),
				q("c", models.PriorityP1, models.StatusOpen),
			},
			max:      2,
			wantOpen: []string{"a", "b"},
		},
		{
			name: "under cap is a no-op",
			setup: []*models.Question{
				q("a", models.PriorityP2, models.StatusOpen),
				q("b", models.PriorityP0, models.StatusOpen),
			},
			max:      5,
			wantOpen: []string{"a", "b"},
		},
		{
			name: "non-open entries are never touched",
			setup: []*models.Question{
				q("a", models.PriorityP0, models.StatusAnsweredByInterview),
				q("b", models.PriorityP0, models.StatusMerged),
				q("c", models.PriorityP2, models.StatusOpen),
				q("d", models.PriorityP0, models.StatusOpen),
			},
			max:      1,
			wantOpen: []string{"d"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New(tc.setup)
			before := statuses(b)

			b.EnforceCap(tc.max)

			if got := b.OpenCount(); got > tc.max {
				t.Errorf("OpenCount() = %d, want at most %d", got, tc.max)
			}
			openSet := make(map[string]bool)
			for _, id := range tc.wantOpen {
				openSet[id] = true
			}
			for _, qq := range b.Questions() {
				if openSet[qq.ID] && qq.Status != models.StatusOpen {
					t.Errorf("question %s: status = %s, want open", qq.ID, qq.Status)
				}
				if before[qq.ID] != models.StatusOpen && qq.Status != before[qq.ID] {
					t.Errorf("question %s: non-open status changed %s -> %s", qq.ID, before[qq.ID], qq.Status)
				}
			}
		})
	}
}

func TestEnforceCapIdempotent(t *testing.T) {
	b := New([]*models.Question{
		q("a", models.PriorityP2, models.StatusOpen),
		q("b", models.PriorityP0, models.StatusOpen),
		q("c", models.PriorityP1, models.StatusOpen),
		q("d", models.PriorityP1, models.StatusOpen),
	})

	b.EnforceCap(2)
	first := statuses(b)

	b.EnforceCap(2)
	second := statuses(b)

	for id, st := range first {
		if second[id] != st {
			t.Errorf("question %s: second EnforceCap changed status %s -> %s", id, st, second[id])
		}
	}
}

func TestApplyDecision(t *testing.T) {
	t.Run("keep updates priority only", func(t *testing.T) {
		b := New([]*models.Question{q("a", models.PriorityP2, models.StatusOpen)})
		if err := b.ApplyDecision("a", Decision{Action: ActionKeep, Priority: models.PriorityP0}); err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		got := b.Get("a")
		if got.Priority != models.PriorityP0 || got.Status != models.StatusOpen {
			t.Errorf("got priority=%s status=%s, want P0/open", got.Priority, got.Status)
		}
	})

	t.Run("merge retains text and records target", func(t *testing.T) {
		b := New([]*models.Question{
			q("a", models.PriorityP1, models.StatusOpen),
			q("b", models.PriorityP1, models.StatusOpen),
		})
		if err := b.ApplyDecision("b", Decision{Action: ActionMerge, IntoID: "a"}); err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		got := b.Get("b")
		if got.Status != models.StatusMerged || got.MergedInto != "a" {
			t.Errorf("got status=%s merged_into=%s, want merged/a", got.Status, got.MergedInto)
		}
		if got.Text == "" {
			t.Error("merged question lost its text")
		}
	})

	t.Run("answer sets status and answer", func(t *testing.T) {
		b := New([]*models.Question{q("a", models.PriorityP1, models.StatusOpen)})
		if err := b.ApplyDecision("a", Decision{Action: ActionAnswer, Answer: "threshold is 0.3"}); err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		got := b.Get("a")
		if got.Status != models.StatusAnsweredByEvidence || got.Answer != "threshold is 0.3" {
			t.Errorf("got status=%s answer=%q", got.Status, got.Answer)
		}
	})

	t.Run("empty answer rejected, question unmodified", func(t *testing.T) {
		b := New([]*models.Question{q("a", models.PriorityP1, models.StatusOpen)})
		err := b.ApplyDecision("a", Decision{Action: ActionAnswer})
		if err != ErrEmptyAnswer {
			t.Fatalf("err = %v, want ErrEmptyAnswer", err)
		}
		got := b.Get("a")
		if got.Status != models.StatusOpen || got.Answer != "" {
			t.Errorf("question mutated despite invalid decision: status=%s answer=%q", got.Status, got.Answer)
		}
	})

	t.Run("unknown id is left untouched", func(t *testing.T) {
		b := New([]*models.Question{q("a", models.PriorityP1, models.StatusOpen)})
		if err := b.ApplyDecision("nope", Decision{Action: ActionAnswer, Answer: "x"}); err != nil {
			t.Fatalf("ApplyDecision: %v", err)
		}
		if got := b.Get("a"); got.Status != models.StatusOpen {
			t.Errorf("unrelated question mutated: %s", got.Status)
		}
	})
}

func TestOpenHighPriority(t *testing.T) {
	b := New([]*models.Question{
		q("p1-first", models.PriorityP1, models.StatusOpen),
		q("p2", models.PriorityP2, models.StatusOpen),
		q("p0", models.PriorityP0, models.StatusOpen),
		q("answered", models.PriorityP0, models.StatusAnsweredByInterview),
		q("p1-second", models.PriorityP1, models.StatusOpen),
	})

	got := b.OpenHighPriority()
	want := []string{"p0", "p1-first", "p1-second"}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("candidate[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestDeprioritizeOpen(t *testing.T) {
	b := New([]*models.Question{
		q("a", models.PriorityP0, models.StatusOpen),
		q("b", models.PriorityP1, models.StatusAnsweredByInterview),
		q("c", models.PriorityP2, models.StatusOpen),
	})
	b.DeprioritizeOpen()

	if got := b.Get("a").Status; got != models.StatusDeprioritized {
		t.Errorf("a: %s, want deprioritized", got)
	}
	if got := b.Get("b").Status; got != models.StatusAnsweredByInterview {
		t.Errorf("b: %s, want answered_by_interview", got)
	}
	if got := b.Get("c").Status; got != models.StatusDeprioritized {
		t.Errorf("c: %s, want deprioritized", got)
	}
}
