package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/logging"
)

// Pipeline runs the video and audio analyzers for one job and merges their
// results into a Record. The two sides share no mutable state and run
// concurrently; each side's fatal error is recorded on the merged record
// without suppressing the other side.
type Pipeline struct {
	video  *VideoAnalyzer
	audio  *AudioAnalyzer
	logger zerolog.Logger
}

func NewPipeline(video *VideoAnalyzer, audio *AudioAnalyzer) *Pipeline {
	return &Pipeline{
		video:  video,
		audio:  audio,
		logger: logging.WithComponent("pipeline"),
	}
}

// Run analyzes one local video file. The returned record is best-effort:
// it is an error only when both sides failed fatally.
func (p *Pipeline) Run(ctx context.Context, videoID, videoPath string) *Record {
	record := &Record{
		VideoID:    videoID,
		AnalyzedAt: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		result, err := p.video.Analyze(ctx, videoPath)
		if err != nil {
			p.logger.Error().Err(err).Str("video_id", videoID).Msg("video analysis failed")
			record.VideoError = err.Error()
			return
		}
		record.Video = result
	}()

	go func() {
		defer wg.Done()
		result, err := p.audio.Analyze(ctx, videoPath)
		if err != nil {
			p.logger.Error().Err(err).Str("video_id", videoID).Msg("audio analysis failed")
			record.AudioError = err.Error()
			return
		}
		record.Audio = result
	}()

	wg.Wait()
	return record
}
