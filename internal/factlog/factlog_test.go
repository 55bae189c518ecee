package factlog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddCandidate(t *testing.T) {
	tests := []struct {
		name    string
		seed    []string
		add     string
		wantNew bool
		want    []string
	}{
		{
			name:    "first fact is new",
			add:     "the loss threshold is 0.3",
			wantNew: true,
			want:    []string{"the loss threshold is 0.3"},
		},
		{
			name:    "case-insensitive exact duplicate rejected",
			seed:    []string{"The rate is 3%"},
			add:     "the rate is 3%",
			wantNew: false,
			want:    []string{"The rate is 3%"},
		},
		{
			name:    "whitespace trimmed before exact match",
			seed:    []string{"the rate is 3%"},
			add:     "  the rate is 3%  ",
			wantNew: false,
			want:    []string{"the rate is 3%"},
		},
		{
			name:    "shorter contained candidate rejected",
			seed:    []string{"the rate is 3% and was calibrated against 2019 actuals"},
			add:     "the rate is 3%",
			wantNew: false,
			want:    []string{"the rate is 3% and was calibrated against 2019 actuals"},
		},
		{
			name:    "longer candidate replaces contained entry in place",
			seed:    []string{"the rate is 3%", "review happens quarterly"},
			add:     "actually the rate is 3% because of the 2019 calibration",
			wantNew: false,
			want: []string{
				"actually the rate is 3% because of the 2019 calibration",
				"review happens quarterly",
			},
		},
		{
			name:    "near-duplicate by token overlap keeps longer",
			seed:    []string{"forecast model uses quarterly GDP growth data"},
			add:     "forecast model uses quarterly GDP growth data from the Fed feed",
			wantNew: false,
			want:    []string{"forecast model uses quarterly GDP growth data from the Fed feed"},
		},
		{
			name:    "unrelated fact appended",
			seed:    []string{"the rate is 3%"},
			add:     "Maria in Finance approves every override manually",
			wantNew: true,
			want: []string{
				"the rate is 3%",
				"Maria in Finance approves every override manually",
			},
		},
		{
			name:    "empty candidate ignored",
			seed:    []string{"the rate is 3%"},
			add:     "   ",
			wantNew: false,
			want:    []string{"the rate is 3%"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := New(append([]string(nil), tc.seed...))
			gotNew := l.AddCandidate(tc.add)
			if gotNew != tc.wantNew {
				t.Errorf("AddCandidate(%q) = %v, want %v", tc.add, gotNew, tc.wantNew)
			}
			if diff := cmp.Diff(tc.want, l.Facts()); diff != "" {
				t.Errorf("facts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAddCandidateOrderIndependentForExactDups(t *testing.T) {
	// Per the dedup contract, exact and substring duplicates collapse to a
	// single entry regardless of which spelling arrives first.
	a := "rate is 3%"
	b := "the rate is 3 percent... actually the rate is 3%"

	l1 := New(nil)
	l1.AddCandidate(a)
	l1.AddCandidate(b)

	l2 := New(nil)
	l2.AddCandidate(b)
	l2.AddCandidate(a)

	if l1.Len() != 1 || l2.Len() != 1 {
		t.Fatalf("got %d and %d entries, want 1 and 1", l1.Len(), l2.Len())
	}
	if l1.Facts()[0] != b || l2.Facts()[0] != b {
		t.Errorf("longer statement should survive both orders: %q vs %q", l1.Facts()[0], l2.Facts()[0])
	}
}

func TestJaccardTieKeepsEarlier(t *testing.T) {
	first := "model output goes to treasury team"
	second := "treasury team goes to model output" // same tokens, same length
	l := New(nil)
	l.AddCandidate(first)
	if l.AddCandidate(second) {
		t.Fatal("token-identical candidate treated as new")
	}
	if l.Facts()[0] != first {
		t.Errorf("tie should keep earlier entry, got %q", l.Facts()[0])
	}
}
