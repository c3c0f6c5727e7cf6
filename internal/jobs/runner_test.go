package jobs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/adlens/adlens/internal/database"
	"github.com/adlens/adlens/internal/models"
	"github.com/adlens/adlens/internal/storage"
)

func setupRunner(t *testing.T, queueSize int) (*Runner, *database.AnalysisRepo) {
	t.Helper()

	tmpDir := t.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(tmpDir, "uploads"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	db, err := database.NewDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	videos := database.NewVideoRepository(db)
	analyses := database.NewAnalysisRepo(db)
	return NewRunner(nil, store, videos, analyses, queueSize), analyses
}

func TestRunner_EnqueueMarksPending(t *testing.T) {
	runner, analyses := setupRunner(t, 4)
	ctx := context.Background()

	if err := runner.Enqueue(ctx, "vid-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	row, err := analyses.GetByVideoID(ctx, "vid-1")
	if err != nil {
		t.Fatalf("Failed to read analysis row: %v", err)
	}
	if row == nil || row.Status != models.StatusPending {
		t.Errorf("Expected pending status after enqueue, got %+v", row)
	}
}

func TestRunner_EnqueueFullQueue(t *testing.T) {
	runner, _ := setupRunner(t, 1)
	ctx := context.Background()

	if err := runner.Enqueue(ctx, "vid-1"); err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	if err := runner.Enqueue(ctx, "vid-2"); err == nil {
		t.Error("Expected error when the queue is full, got nil")
	}
}

func TestRunner_EnqueueFullQueueLeavesJobRetryable(t *testing.T) {
	runner, analyses := setupRunner(t, 1)
	ctx := context.Background()

	if err := runner.Enqueue(ctx, "vid-1"); err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	if err := runner.Enqueue(ctx, "vid-2"); err == nil {
		t.Fatal("Expected error when the queue is full, got nil")
	}

	// The rejected job was never queued, so its status must not read as
	// in-flight or a later enqueue attempt would be refused forever.
	row, err := analyses.GetByVideoID(ctx, "vid-2")
	if err != nil {
		t.Fatalf("Failed to read analysis row: %v", err)
	}
	if row == nil {
		t.Fatal("Expected a status row for the rejected job")
	}
	if row.Status == models.StatusPending || row.Status == models.StatusRunning {
		t.Errorf("Rejected job left in-flight status %q", row.Status)
	}
	if row.Status != models.StatusFailed {
		t.Errorf("Expected failed status for rejected job, got %q", row.Status)
	}
}
