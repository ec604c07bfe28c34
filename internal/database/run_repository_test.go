package database

import (
	"path/filepath"
	"testing"
	"time"

	"suborbit/models"
)

// setupTestRunRepo creates a test database and run repository.
func setupTestRunRepo(t *testing.T) *RunRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRunRepository(db.Connection())
}

func testRun(id string) *models.Run {
	return &models.Run{
		ID:        id,
		State:     models.RunStateRunning,
		StartYear: 2020,
		EndYear:   2022,
		Source:    "catalog",
		StartedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetRun(t *testing.T) {
	repo := setupTestRunRepo(t)

	if err := repo.Create(testRun("run-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Get("run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to exist")
	}
	if got.State != models.RunStateRunning {
		t.Errorf("expected state 'running', got %q", got.State)
	}
	if got.StartYear != 2020 || got.EndYear != 2022 {
		t.Errorf("unexpected year range: %d-%d", got.StartYear, got.EndYear)
	}
	if got.FinishedAt != nil {
		t.Errorf("fresh run must have no finish time, got %v", got.FinishedAt)
	}
}

func TestGetMissingRun(t *testing.T) {
	repo := setupTestRunRepo(t)

	got, err := repo.Get("nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing run, got %+v", got)
	}
}

func TestFinishRun(t *testing.T) {
	repo := setupTestRunRepo(t)

	if err := repo.Create(testRun("run-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Finish("run-1", models.RunStateCompleted, 7); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, _ := repo.Get("run-1")
	if got.State != models.RunStateCompleted {
		t.Errorf("expected state 'completed', got %q", got.State)
	}
	if got.Accepted != 7 {
		t.Errorf("expected accepted 7, got %d", got.Accepted)
	}
	if got.FinishedAt == nil {
		t.Error("expected finish time to be set")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	repo := setupTestRunRepo(t)

	if err := repo.Finish("nope", models.RunStateCompleted, 0); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := setupTestRunRepo(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		run := testRun(id)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(run); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	runs, err := repo.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}
