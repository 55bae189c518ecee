package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/handover/internal/session"
	"github.com/ShayCichocki/handover/pkg/models"
)

var _ session.Store = (*DB)(nil)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "handover.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	db := openTestDB(t)

	st := session.New("s1", map[string]string{"project": "forecasting"})
	st.Status = session.StatusSuspended
	st.CurrentStage = "interview"
	st.Pending = &session.SuspendPayload{QuestionID: "q1", QuestionText: "why 0.3?", Round: 2}
	st.Backlog = []*models.Question{{
		ID: "q1", Text: "why 0.3?", Origin: models.OriginPerItem,
		Priority: models.PriorityP0, Status: models.StatusOpen,
	}}
	st.Facts = []string{"the threshold was tuned by hand"}

	if err := db.SaveCheckpoint(st); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	got, err := db.LoadCheckpoint("s1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if got.Status != session.StatusSuspended || got.CurrentStage != "interview" {
		t.Errorf("status=%s stage=%s, want suspended/interview", got.Status, got.CurrentStage)
	}
	if got.Pending == nil || got.Pending.QuestionID != "q1" || got.Pending.Round != 2 {
		t.Errorf("pending not preserved: %+v", got.Pending)
	}
	if len(got.Backlog) != 1 || got.Backlog[0].Priority != models.PriorityP0 {
		t.Errorf("backlog not preserved: %+v", got.Backlog)
	}
	if len(got.Facts) != 1 {
		t.Errorf("facts not preserved: %v", got.Facts)
	}
}

func TestCheckpointOverwrites(t *testing.T) {
	db := openTestDB(t)

	st := session.New("s1", nil)
	st.CurrentStage = "parse"
	if err := db.SaveCheckpoint(st); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	st.CurrentStage = "deep_dive"
	st.Status = session.StatusRunning
	if err := db.SaveCheckpoint(st); err != nil {
		t.Fatalf("second SaveCheckpoint: %v", err)
	}

	got, err := db.LoadCheckpoint("s1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if got.CurrentStage != "deep_dive" {
		t.Errorf("CurrentStage = %s, want deep_dive (latest checkpoint wins)", got.CurrentStage)
	}

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("ListSessions returned %d rows, want 1", len(sessions))
	}
}

func TestLoadCheckpointMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadCheckpoint("ghost"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("LoadCheckpoint(ghost) err = %v, want ErrNotFound", err)
	}
}

func TestArtifacts(t *testing.T) {
	db := openTestDB(t)

	st := session.New("s1", nil)
	if err := db.SaveCheckpoint(st); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	if err := db.SaveArtifact("s1", "package.md", []byte("# Onboarding")); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if err := db.SaveArtifact("s1", "transcript.json", []byte("[]")); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	// Same name replaces.
	if err := db.SaveArtifact("s1", "package.md", []byte("# Onboarding v2")); err != nil {
		t.Fatalf("SaveArtifact replace: %v", err)
	}

	data, err := db.LoadArtifact("s1", "package.md")
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if string(data) != "# Onboarding v2" {
		t.Errorf("artifact = %q, want replaced content", data)
	}

	names, err := db.ListArtifacts("s1")
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("ListArtifacts = %v, want 2 names", names)
	}

	if _, err := db.LoadArtifact("s1", "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("LoadArtifact(missing) err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	db := openTestDB(t)

	st := session.New("s1", nil)
	if err := db.SaveCheckpoint(st); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	if err := db.SaveArtifact("s1", "package.md", []byte("x")); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	if err := db.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if _, err := db.LoadCheckpoint("s1"); !errors.Is(err, session.ErrNotFound) {
		t.Error("checkpoint should be gone after session delete")
	}
	if _, err := db.LoadArtifact("s1", "package.md"); !errors.Is(err, session.ErrNotFound) {
		t.Error("artifact should be gone after session delete")
	}
}

func TestPurgeOldSessions(t *testing.T) {
	db := openTestDB(t)

	save := func(id, status string) {
		st := session.New(id, nil)
		st.Status = status
		if err := db.SaveCheckpoint(st); err != nil {
			t.Fatalf("SaveCheckpoint(%s): %v", id, err)
		}
	}
	save("done", session.StatusCompleted)
	save("broken", session.StatusFailed)
	save("waiting", session.StatusSuspended)

	// Backdate everything past the cutoff.
	old := formatTime(time.Now().Add(-48 * time.Hour))
	if _, err := db.Exec("UPDATE sessions SET updated_at = ?", old); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	count, err := db.PurgeOldSessions(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldSessions: %v", err)
	}
	if count != 2 {
		t.Errorf("purged %d sessions, want 2 (finished only)", count)
	}

	// Suspended sessions survive regardless of age.
	if _, err := db.LoadCheckpoint("waiting"); err != nil {
		t.Errorf("suspended session purged: %v", err)
	}
	if _, err := db.LoadCheckpoint("done"); !errors.Is(err, session.ErrNotFound) {
		t.Error("completed session should be purged")
	}
}
