package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Speech-to-text models expect mono 16 kHz PCM input.
const (
	audioSampleRate = 16000
	audioChannels   = 1
	audioCodec      = "pcm_s16le"
)

// ExtractAudio demuxes the audio track to a mono 16 kHz PCM WAV under the
// extractor's temp dir and returns its path. The caller owns deletion of the
// returned file. Fails with *AudioError when the container has no audio
// stream or the demux exits non-zero.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	meta, err := e.Metadata(ctx, videoPath)
	if err != nil {
		return "", &AudioError{Path: videoPath, Reason: "probe failed", Err: err}
	}
	if !meta.HasAudio {
		return "", &AudioError{Path: videoPath, Reason: "no audio stream"}
	}

	outPath := filepath.Join(e.tempDir, fmt.Sprintf("audio_%s.wav", uuid.New().String()))

	args := []string{
		"-i", videoPath,
		"-vn",
		"-acodec", audioCodec,
		"-ar", fmt.Sprintf("%d", audioSampleRate),
		"-ac", fmt.Sprintf("%d", audioChannels),
		"-y",
		outPath,
	}

	e.logger.Debug().Str("input", videoPath).Str("output", outPath).Msg("extracting audio")

	if err := e.runDemux(ctx, args); err != nil {
		os.Remove(outPath)
		return "", &AudioError{Path: videoPath, Reason: "demux failed", Err: err}
	}

	return outPath, nil
}
