package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/adlens/adlens/internal/analysis"
	"github.com/adlens/adlens/internal/models"
)

// AnalysisRepo persists one analysis row per video: job status plus the
// serialized merged record.
type AnalysisRepo struct {
	db *DB
}

func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

// AnalysisRow is the stored shape of an analysis job.
type AnalysisRow struct {
	VideoID   string           `json:"video_id"`
	Status    string           `json:"status"`
	Record    *analysis.Record `json:"record,omitempty"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SetStatus upserts the job status for a video without touching a stored
// record.
func (r *AnalysisRepo) SetStatus(ctx context.Context, videoID, status, errMsg string) error {
	query := `
		INSERT INTO analyses (video_id, status, error, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (video_id)
		DO UPDATE SET status = excluded.status, error = excluded.error, updated_at = excluded.updated_at`

	_, err := r.db.conn.ExecContext(ctx, query, videoID, status, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set analysis status: %w", err)
	}
	return nil
}

// SaveRecord stores a completed analysis record and marks the job complete.
func (r *AnalysisRepo) SaveRecord(ctx context.Context, record *analysis.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	query := `
		INSERT INTO analyses (video_id, status, record, error, updated_at)
		VALUES (?, ?, ?, '', ?)
		ON CONFLICT (video_id)
		DO UPDATE SET status = excluded.status, record = excluded.record, error = '', updated_at = excluded.updated_at`

	_, err = r.db.conn.ExecContext(ctx, query, record.VideoID, models.StatusComplete, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}
	return nil
}

// GetByVideoID returns the analysis row for a video, or nil when none
// exists.
func (r *AnalysisRepo) GetByVideoID(ctx context.Context, videoID string) (*AnalysisRow, error) {
	query := `
		SELECT video_id, status, record, error, updated_at
		FROM analyses WHERE video_id = ?`

	row := &AnalysisRow{}
	var recordStr sql.NullString
	err := r.db.conn.QueryRowContext(ctx, query, videoID).Scan(
		&row.VideoID, &row.Status, &recordStr, &row.Error, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if recordStr.Valid && recordStr.String != "" {
		record := &analysis.Record{}
		if err := json.Unmarshal([]byte(recordStr.String), record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis record: %w", err)
		}
		row.Record = record
	}
	return row, nil
}
