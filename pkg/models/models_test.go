package models

import (
	"strings"
	"testing"
)

func TestMakeItemID(t *testing.T) {
	a := MakeItemID("Loss Model.xlsx")
	b := MakeItemID("loss_model.xlsx")
	if a != b {
		t.Errorf("IDs should normalize case and spaces: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "loss_model_") {
		t.Errorf("ID = %q, want slug prefix", a)
	}
	if MakeItemID("other.csv") == a {
		t.Error("different filenames should get different IDs")
	}

	long := MakeItemID(strings.Repeat("x", 60) + ".csv")
	if len(long) > 30+1+6 {
		t.Errorf("long names should truncate, got %q (%d chars)", long, len(long))
	}
}

func TestLatestReports(t *testing.T) {
	reports := []ItemReport{
		{ItemID: "a", PassNumber: 1, Summary: "a1"},
		{ItemID: "b", PassNumber: 1, Summary: "b1"},
		{ItemID: "a", PassNumber: 2, Summary: "a2"},
	}
	latest := LatestReports(reports)
	if len(latest) != 2 {
		t.Fatalf("latest = %d entries, want 2", len(latest))
	}
	if latest["a"].Summary != "a2" {
		t.Errorf("latest[a] = %q, want the pass-2 report", latest["a"].Summary)
	}
	if latest["b"].PassNumber != 1 {
		t.Errorf("latest[b].PassNumber = %d, want 1", latest["b"].PassNumber)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want QuestionPriority
	}{
		{"P0", PriorityP0},
		{"P2", PriorityP2},
		{"p0", PriorityP1},
		{"urgent", PriorityP1},
		{"", PriorityP1},
	}
	for _, tt := range tests {
		if got := ParsePriority(tt.in); got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityP0.Rank() < PriorityP1.Rank() && PriorityP1.Rank() < PriorityP2.Rank()) {
		t.Error("priorities should rank P0 < P1 < P2")
	}
	if QuestionPriority("bogus").Rank() <= PriorityP2.Rank() {
		t.Error("unknown priorities should rank last")
	}
}

func TestAnswered(t *testing.T) {
	q := Question{Status: StatusOpen}
	if q.Answered() {
		t.Error("open question is not answered")
	}
	q.Status = StatusAnsweredByEvidence
	if !q.Answered() {
		t.Error("answered_by_evidence counts as answered")
	}
	q.Status = StatusMerged
	if q.Answered() {
		t.Error("merged question is not answered")
	}
}
