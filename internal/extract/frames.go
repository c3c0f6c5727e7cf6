package extract

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
)

// FrameOptions controls sampled extraction. Zero values fall back to the
// defaults below.
type FrameOptions struct {
	TargetFPS    float64
	StartTime    float64
	EndTime      float64 // 0 means end of stream; the window is [start, end)
	MaxDimension int
}

const (
	DefaultTargetFPS    = 2.0
	DefaultMaxDimension = 640

	// DefaultMaxFrames caps Collect so a runaway decode cannot exhaust
	// memory on long inputs.
	DefaultMaxFrames = 600
)

func (o FrameOptions) withDefaults() FrameOptions {
	if o.TargetFPS <= 0 {
		o.TargetFPS = DefaultTargetFPS
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	return o
}

// FrameSeq is a finite, non-restartable sequence of frames backed by a single
// ffmpeg decode pass. Next returns io.EOF once the stream is exhausted. The
// consumer owns the sequence; Close must be called when abandoning it early.
type FrameSeq struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	br     *bufio.Reader

	fps        float64
	interval   int
	startFrame int
	ordinal    int

	keyframeMode bool
	threshold    float64
	prevLuma     []uint8

	done bool
}

// Frames samples the video at opts.TargetFPS by keeping every
// frameInterval-th decoded frame inside [StartTime, EndTime), where
// frameInterval = max(1, round(sourceFPS/TargetFPS)). Kept frames are scaled
// so their longer edge does not exceed MaxDimension, preserving aspect ratio.
func (e *Extractor) Frames(ctx context.Context, videoPath string, meta *VideoMetadata, opts FrameOptions) (*FrameSeq, error) {
	opts = opts.withDefaults()
	interval := FrameInterval(meta.FPS, opts.TargetFPS)

	startFrame := int(opts.StartTime * meta.FPS)
	selectExpr := fmt.Sprintf("gte(n\\,%d)*not(mod(n-%d\\,%d))", startFrame, startFrame, interval)
	if opts.EndTime > 0 {
		endFrame := int(opts.EndTime * meta.FPS)
		selectExpr = fmt.Sprintf("gte(n\\,%d)*lt(n\\,%d)*not(mod(n-%d\\,%d))", startFrame, endFrame, startFrame, interval)
	}

	filter := fmt.Sprintf("select='%s',scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		selectExpr, opts.MaxDimension, opts.MaxDimension)

	seq, err := e.startDecode(ctx, videoPath, filter)
	if err != nil {
		return nil, err
	}
	seq.fps = meta.FPS
	seq.interval = interval
	seq.startFrame = startFrame
	return seq, nil
}

// Keyframes runs an independent decode pass over every frame. The first
// decoded frame is always a keyframe; a later frame is a keyframe when its
// mean absolute luminance difference from the previous frame exceeds
// threshold (0-255 scale).
func (e *Extractor) Keyframes(ctx context.Context, videoPath string, meta *VideoMetadata, threshold float64, maxDimension int) (*FrameSeq, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	filter := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		maxDimension, maxDimension)

	seq, err := e.startDecode(ctx, videoPath, filter)
	if err != nil {
		return nil, err
	}
	seq.fps = meta.FPS
	seq.interval = 1
	seq.keyframeMode = true
	seq.threshold = threshold
	return seq, nil
}

func (e *Extractor) startDecode(ctx context.Context, videoPath, filter string) (*FrameSeq, error) {
	args := []string{
		"-i", videoPath,
		"-vf", filter,
		"-fps_mode", "vfr",
		"-an",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &DecodeError{Path: videoPath, Reason: "ffmpeg start failed", Err: err}
	}

	return &FrameSeq{
		cmd:    cmd,
		stdout: stdout,
		br:     bufio.NewReaderSize(stdout, 1<<16),
	}, nil
}

// Next returns the next frame, or io.EOF at end of stream. After io.EOF or
// any error the sequence is exhausted.
func (s *FrameSeq) Next() (*Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		img, err := jpeg.Decode(s.br)
		if err != nil {
			s.finish()
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to decode frame stream: %w", err)
		}

		frameNumber := s.startFrame + s.ordinal*s.interval
		s.ordinal++

		if s.keyframeMode {
			luma := lumaPlane(img)
			isKey := s.prevLuma == nil || meanAbsDiff(luma, s.prevLuma) > s.threshold
			s.prevLuma = luma
			if !isKey {
				continue
			}
			return &Frame{
				Image:            img,
				FrameNumber:      frameNumber,
				TimestampSeconds: float64(frameNumber) / s.fps,
				IsKeyframe:       true,
			}, nil
		}

		return &Frame{
			Image:            img,
			FrameNumber:      frameNumber,
			TimestampSeconds: float64(frameNumber) / s.fps,
		}, nil
	}
}

// Collect drains the sequence into an owned slice, stopping after max frames
// (or DefaultMaxFrames when max <= 0). Analyzers that need more than one pass
// must materialize through Collect first.
func (s *FrameSeq) Collect(max int) ([]*Frame, error) {
	if max <= 0 {
		max = DefaultMaxFrames
	}
	frames := make([]*Frame, 0, 64)
	for len(frames) < max {
		frame, err := s.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
	s.Close()
	return frames, nil
}

// Close abandons the decode. Safe to call more than once.
func (s *FrameSeq) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

func (s *FrameSeq) finish() {
	if s.done {
		return
	}
	s.done = true
	s.stdout.Close()
	_ = s.cmd.Wait()
}

// lumaPlane converts an image to its 8-bit luminance plane, row-major.
func lumaPlane(img image.Image) []uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	luma := make([]uint8, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// BT.601 luma, 16-bit channels down to 8 bits.
			luma[i] = uint8((299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000)
			i++
		}
	}
	return luma
}

func meanAbsDiff(a, b []uint8) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return float64(sum) / float64(n)
}
