package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status values for an analysis run.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadTime  time.Time `json:"upload_time"`
}

func NewVideo(title, filename, contentType string, size int64) *Video {
	return &Video{
		ID:          uuid.New().String(),
		Title:       title,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		UploadTime:  time.Now(),
	}
}
