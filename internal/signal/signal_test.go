package signal

import (
	"testing"
)

func TestStopRequestRoundTrip(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if w.ShouldStop("s1") {
		t.Error("fresh watcher should report no stop")
	}

	if err := w.RequestStop("s1"); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	// Stat fallback makes the signal visible even if the fsnotify
	// event has not been delivered yet.
	if !w.ShouldStop("s1") {
		t.Error("ShouldStop should see the signal file")
	}

	// Other sessions are unaffected.
	if w.ShouldStop("s2") {
		t.Error("signal should be scoped to its session")
	}
}

func TestClear(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.RequestStop("s1"); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}
	if !w.ShouldStop("s1") {
		t.Fatal("signal not visible")
	}

	w.Clear("s1")
	if w.ShouldStop("s1") {
		t.Error("cleared session should not report stop")
	}
}
