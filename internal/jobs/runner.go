package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/analysis"
	"github.com/adlens/adlens/internal/database"
	"github.com/adlens/adlens/internal/logging"
	"github.com/adlens/adlens/internal/metrics"
	"github.com/adlens/adlens/internal/models"
	"github.com/adlens/adlens/internal/storage"
)

// Runner is a bounded in-process worker pool: one job analyzes one video.
// Retry of failed jobs is an external concern; the runner only executes,
// records and reports.
type Runner struct {
	pipeline *analysis.Pipeline
	storage  storage.Storage
	videos   *database.VideoRepository
	analyses *database.AnalysisRepo

	queue  chan string
	wg     sync.WaitGroup
	logger zerolog.Logger
}

func NewRunner(pipeline *analysis.Pipeline, store storage.Storage, videos *database.VideoRepository, analyses *database.AnalysisRepo, queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Runner{
		pipeline: pipeline,
		storage:  store,
		videos:   videos,
		analyses: analyses,
		queue:    make(chan string, queueSize),
		logger:   logging.WithComponent("jobs"),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is closed.
func (r *Runner) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case videoID, open := <-r.queue:
					if !open {
						return
					}
					r.run(ctx, videoID)
				}
			}
		}()
	}
}

// Enqueue schedules a video for analysis; errors when the queue is full.
// The pending status is written before the send so a worker can never
// observe a queued job without a status row; a full queue rolls the row
// back to failed so the job stays re-enqueueable.
func (r *Runner) Enqueue(ctx context.Context, videoID string) error {
	if err := r.analyses.SetStatus(ctx, videoID, models.StatusPending, ""); err != nil {
		return err
	}
	select {
	case r.queue <- videoID:
		return nil
	default:
		queueErr := fmt.Errorf("analysis queue is full")
		if err := r.analyses.SetStatus(ctx, videoID, models.StatusFailed, queueErr.Error()); err != nil {
			r.logger.Error().Err(err).Str("video_id", videoID).Msg("failed to roll back unqueued job status")
		}
		return queueErr
	}
}

// Stop drains the pool after the queue closes.
func (r *Runner) Stop() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, videoID string) {
	logger := r.logger.With().Str("video_id", videoID).Logger()

	video, err := r.videos.GetByID(ctx, videoID)
	if err == nil && video == nil {
		err = fmt.Errorf("video not found")
	}
	if err != nil {
		logger.Error().Err(err).Msg("job lookup failed")
		r.fail(ctx, videoID, err)
		return
	}

	videoPath, err := r.storage.Path(video.Filename)
	if err != nil {
		logger.Error().Err(err).Msg("source file unavailable")
		r.fail(ctx, videoID, err)
		return
	}

	if err := r.analyses.SetStatus(ctx, videoID, models.StatusRunning, ""); err != nil {
		logger.Error().Err(err).Msg("failed to mark job running")
	}

	record := r.pipeline.Run(ctx, videoID, videoPath)
	if record.Video == nil && record.Audio == nil {
		err := fmt.Errorf("analysis produced no result: video: %s; audio: %s", record.VideoError, record.AudioError)
		logger.Error().Err(err).Msg("job failed")
		r.fail(ctx, videoID, err)
		return
	}

	if err := r.analyses.SaveRecord(ctx, record); err != nil {
		logger.Error().Err(err).Msg("failed to persist analysis record")
		r.fail(ctx, videoID, err)
		return
	}

	metrics.JobsProcessed.WithLabelValues(models.StatusComplete).Inc()
	logger.Info().Msg("analysis job complete")
}

func (r *Runner) fail(ctx context.Context, videoID string, cause error) {
	metrics.JobsProcessed.WithLabelValues(models.StatusFailed).Inc()
	if err := r.analyses.SetStatus(ctx, videoID, models.StatusFailed, cause.Error()); err != nil {
		r.logger.Error().Err(err).Str("video_id", videoID).Msg("failed to record job failure")
	}
}
