package database

import (
	"context"
	"testing"
	"time"

	"github.com/adlens/adlens/internal/models"
)

func TestVideoRepository_Insert(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVideoRepository(db)
	ctx := context.Background()

	video := models.NewVideo("Test Video", "test.mp4", "video/mp4", 1024)

	if err := repo.Insert(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve video: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected video, got nil")
	}

	if retrieved.Title != video.Title {
		t.Errorf("Expected title %s, got %s", video.Title, retrieved.Title)
	}
	if retrieved.Filename != video.Filename {
		t.Errorf("Expected filename %s, got %s", video.Filename, retrieved.Filename)
	}
	if retrieved.Size != video.Size {
		t.Errorf("Expected size %d, got %d", video.Size, retrieved.Size)
	}
}

func TestVideoRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVideoRepository(db)

	video, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Unexpected error for non-existent video: %v", err)
	}
	if video != nil {
		t.Errorf("Expected nil for non-existent video, got %+v", video)
	}
}

func TestVideoRepository_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVideoRepository(db)
	ctx := context.Background()

	video1 := models.NewVideo("Video 1", "video1.mp4", "video/mp4", 1024)
	video2 := models.NewVideo("Video 2", "video2.mp4", "video/mp4", 2048)
	video2.UploadTime = video1.UploadTime.Add(10 * time.Millisecond)

	if err := repo.Insert(ctx, video1); err != nil {
		t.Fatalf("Failed to insert video1: %v", err)
	}
	if err := repo.Insert(ctx, video2); err != nil {
		t.Fatalf("Failed to insert video2: %v", err)
	}

	videos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list videos: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != video2.ID {
		t.Errorf("Expected first video to be most recent (video2), got %s", videos[0].ID)
	}
}
