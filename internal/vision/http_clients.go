package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Confidence floors applied to capability output.
const (
	DefaultObjectConfidence = 0.5
	DefaultOCRConfidence    = 0.3
)

const capabilityTimeout = 30 * time.Second

// HTTPObjectDetector calls a detection model server (a YOLO-class model
// behind an HTTP endpoint) with a base64 JPEG payload.
type HTTPObjectDetector struct {
	endpoint      string
	minConfidence float64
	httpClient    *http.Client
}

func NewHTTPObjectDetector(endpoint string, minConfidence float64) *HTTPObjectDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultObjectConfidence
	}
	return &HTTPObjectDetector{
		endpoint:      endpoint,
		minConfidence: minConfidence,
		httpClient:    &http.Client{Timeout: capabilityTimeout},
	}
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Detections []struct {
		Label      string      `json:"label"`
		Confidence float64     `json:"confidence"`
		Box        BoundingBox `json:"box"`
	} `json:"detections"`
	Error string `json:"error"`
}

// EnsureLoaded verifies the model server is reachable and its weights are
// loaded.
func (d *HTTPObjectDetector) EnsureLoaded(ctx context.Context) error {
	return checkHealth(ctx, d.httpClient, d.endpoint)
}

func (d *HTTPObjectDetector) Detect(ctx context.Context, frame image.Image) ([]Detection, error) {
	body, err := postFrame(ctx, d.httpClient, d.endpoint, frame)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detection response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detection server error: %s", resp.Error)
	}

	var detections []Detection
	for _, det := range resp.Detections {
		if det.Confidence < d.minConfidence {
			continue
		}
		detections = append(detections, Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box:        det.Box.Clip(),
		})
	}
	return detections, nil
}

// HTTPTextDetector calls an OCR model server with a base64 JPEG payload.
type HTTPTextDetector struct {
	endpoint      string
	minConfidence float64
	httpClient    *http.Client
}

func NewHTTPTextDetector(endpoint string, minConfidence float64) *HTTPTextDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultOCRConfidence
	}
	return &HTTPTextDetector{
		endpoint:      endpoint,
		minConfidence: minConfidence,
		httpClient:    &http.Client{Timeout: capabilityTimeout},
	}
}

type ocrResponse struct {
	Regions []struct {
		Text       string      `json:"text"`
		Confidence float64     `json:"confidence"`
		Box        BoundingBox `json:"box"`
	} `json:"regions"`
	Error string `json:"error"`
}

func (d *HTTPTextDetector) EnsureLoaded(ctx context.Context) error {
	return checkHealth(ctx, d.httpClient, d.endpoint)
}

func (d *HTTPTextDetector) Detect(ctx context.Context, frame image.Image) ([]TextRegion, error) {
	body, err := postFrame(ctx, d.httpClient, d.endpoint, frame)
	if err != nil {
		return nil, err
	}

	var resp ocrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("OCR server error: %s", resp.Error)
	}

	var regions []TextRegion
	for _, reg := range resp.Regions {
		if reg.Confidence < d.minConfidence {
			continue
		}
		box := reg.Box.Clip()
		regions = append(regions, TextRegion{
			Text:       reg.Text,
			Confidence: reg.Confidence,
			Box:        box,
			Kind:       ClassifyRegion(box.Y+box.Height/2, len(reg.Text)),
		})
	}
	return regions, nil
}

func postFrame(ctx context.Context, client *http.Client, endpoint string, frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	reqBody, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func checkHealth(ctx context.Context, client *http.Client, endpoint string) error {
	healthURL := strings.TrimSuffix(endpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("model server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
