package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/logging"
)

// Extractor wraps ffmpeg/ffprobe for metadata probing, frame sampling,
// keyframe extraction and audio demuxing. It writes temporary files under
// tempDir; callers own cleanup of any path it returns.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      zerolog.Logger
}

func NewExtractor(tempDir string) (*Extractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Extractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		logger:      logging.WithComponent("extract"),
	}, nil
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
}

// Metadata probes the container with ffprobe. It fails with *DecodeError when
// the file cannot be opened, carries no video stream, or reports zero
// frames/invalid fps.
func (e *Extractor) Metadata(ctx context.Context, videoPath string) (*VideoMetadata, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, &DecodeError{Path: videoPath, Reason: "file not accessible", Err: err}
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, &DecodeError{Path: videoPath, Reason: "ffprobe failed", Err: err}
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, &DecodeError{Path: videoPath, Reason: "unparseable ffprobe output", Err: err}
	}

	meta := &VideoMetadata{}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		meta.DurationSeconds = dur
	}
	if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		meta.FileSizeBytes = size
	}

	foundVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			meta.Width = stream.Width
			meta.Height = stream.Height
			meta.Codec = stream.CodecName
			meta.FPS = parseFrameRate(stream.RFrameRate)
			if n, err := strconv.Atoi(stream.NbFrames); err == nil {
				meta.TotalFrames = n
			}
		case "audio":
			meta.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, &DecodeError{Path: videoPath, Reason: "no video stream"}
	}
	if meta.FPS <= 0 {
		return nil, &DecodeError{Path: videoPath, Reason: fmt.Sprintf("invalid fps %f", meta.FPS)}
	}
	if meta.TotalFrames == 0 && meta.DurationSeconds > 0 {
		meta.TotalFrames = int(math.Round(meta.DurationSeconds * meta.FPS))
	}
	if meta.TotalFrames == 0 {
		return nil, &DecodeError{Path: videoPath, Reason: "zero frames"}
	}
	if meta.DurationSeconds == 0 {
		meta.DurationSeconds = float64(meta.TotalFrames) / meta.FPS
	}

	e.logger.Debug().
		Str("path", videoPath).
		Float64("duration", meta.DurationSeconds).
		Float64("fps", meta.FPS).
		Int("frames", meta.TotalFrames).
		Str("codec", meta.Codec).
		Msg("probed video")

	return meta, nil
}

// parseFrameRate converts an ffprobe rational like "30000/1001" to a float.
func parseFrameRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
		return 0
	}
	if f, err := strconv.ParseFloat(rate, 64); err == nil {
		return f
	}
	return 0
}

// runDemux runs ffmpeg with the given args, returning the stderr tail on
// failure for diagnostics.
func (e *Extractor) runDemux(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, tail(stderr.String(), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
