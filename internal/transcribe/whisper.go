package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// WhisperClient talks to a Whisper-compatible transcription server
// (/v1/audio/transcriptions with verbose_json responses).
type WhisperClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

const (
	whisperTimeout      = 5 * time.Minute
	DefaultWhisperModel = "whisper-1"
)

func NewWhisperClient(endpoint, model string) *WhisperClient {
	if model == "" {
		model = DefaultWhisperModel
	}
	return &WhisperClient{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: whisperTimeout},
	}
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		// Whisper reports avg_logprob per segment; mapped onto [0,1]
		// below.
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WhisperClient) EnsureLoaded(ctx context.Context) error {
	healthURL := strings.TrimSuffix(c.endpoint, "/")
	if i := strings.Index(healthURL, "/v1/"); i > 0 {
		healthURL = healthURL[:i]
	}
	req, err := http.NewRequestWithContext(ctx, "GET", healthURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcription server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcription server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}

	fields := map[string]string{
		"model":           c.model,
		"response_format": "verbose_json",
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts.Prompt != "" {
		fields["prompt"] = opts.Prompt
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var whisperResp whisperResponse
	if err := json.Unmarshal(body, &whisperResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcription response: %w", err)
	}
	if whisperResp.Error != nil {
		return nil, fmt.Errorf("transcription server error: %s", whisperResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription server returned %d", resp.StatusCode)
	}

	result := &Result{
		Text:     strings.TrimSpace(whisperResp.Text),
		Language: whisperResp.Language,
	}
	for _, seg := range whisperResp.Segments {
		startMS := int64(seg.Start * 1000)
		endMS := int64(seg.End * 1000)
		if endMS < startMS {
			endMS = startMS
		}
		result.Segments = append(result.Segments, Segment{
			Text:        strings.TrimSpace(seg.Text),
			StartTimeMS: startMS,
			EndTimeMS:   endMS,
			Confidence:  logprobToConfidence(seg.AvgLogprob),
		})
	}
	return result, nil
}

// logprobToConfidence squashes an average log-probability into [0,1].
func logprobToConfidence(logprob float64) float64 {
	conf := 1 + logprob
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
