package analysis

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/adlens/adlens/internal/extract"
	"github.com/adlens/adlens/internal/scene"
	"github.com/adlens/adlens/internal/text"
	"github.com/adlens/adlens/internal/transcribe"
	"github.com/adlens/adlens/internal/vision"
)

// KeyframeSummary records the keyframe pass.
type KeyframeSummary struct {
	Count      int       `json:"count"`
	Timestamps []float64 `json:"timestamps"`
}

// ObjectSummary aggregates the object-detection capability's output over the
// sampled frames.
type ObjectSummary struct {
	FramesAnalyzed       int            `json:"frames_analyzed"`
	TotalDetections      int            `json:"total_detections"`
	LabelCounts          map[string]int `json:"label_counts"`
	PersonPresenceRatio  float64        `json:"person_presence_ratio"`
	ProductPresenceRatio float64        `json:"product_presence_ratio"`
	AvgConfidence        float64        `json:"avg_confidence"`
}

// TextSummary aggregates the OCR capability's output over the sampled
// frames.
type TextSummary struct {
	FramesAnalyzed  int            `json:"frames_analyzed"`
	RegionsDetected int            `json:"regions_detected"`
	Texts           []string       `json:"texts"`
	CTACandidates   []string       `json:"cta_candidates"`
	KindCounts      map[string]int `json:"kind_counts"`
}

// VideoAnalysisResult is the visual-side aggregate. Every stage field is
// independently optional: absence means that stage failed or was disabled,
// never a fatal condition for the whole result. The struct is populated
// stage-by-stage and returned as an immutable snapshot.
type VideoAnalysisResult struct {
	Metadata    *extract.VideoMetadata     `json:"metadata,omitempty"`
	Scenes      *scene.Summary             `json:"scenes,omitempty"`
	Keyframes   *KeyframeSummary           `json:"keyframes,omitempty"`
	Objects     *ObjectSummary             `json:"objects,omitempty"`
	Text        *TextSummary               `json:"text,omitempty"`
	Composition *vision.CompositionSummary `json:"composition,omitempty"`
	Color       *vision.ColorSummary       `json:"color,omitempty"`
}

// AudioAnalysisResult is the audio-side aggregate; same optional-field
// semantics as VideoAnalysisResult.
type AudioAnalysisResult struct {
	Transcription *transcribe.Result    `json:"transcription,omitempty"`
	Sentiment     *text.SentimentResult `json:"sentiment,omitempty"`
	Keywords      *text.KeywordResult   `json:"keywords,omitempty"`
	HookText      string                `json:"hook_text,omitempty"`
}

// Record is the merged analysis handed to persistence and downstream
// consumers.
type Record struct {
	VideoID    string               `json:"video_id"`
	AnalyzedAt time.Time            `json:"analyzed_at"`
	Video      *VideoAnalysisResult `json:"video,omitempty"`
	Audio      *AudioAnalysisResult `json:"audio,omitempty"`
	VideoError string               `json:"video_error,omitempty"`
	AudioError string               `json:"audio_error,omitempty"`
}

// ToMap flattens a result into the plain nested key-value shape downstream
// consumers depend on. Absent fields are omitted entirely; there is no
// null-vs-missing ambiguity.
func (r *VideoAnalysisResult) ToMap() (map[string]interface{}, error) {
	return toMap(r)
}

func (r *AudioAnalysisResult) ToMap() (map[string]interface{}, error) {
	return toMap(r)
}

func (r *Record) ToMap() (map[string]interface{}, error) {
	return toMap(r)
}

// VideoResultFromMap rebuilds a result from its plain key-value shape;
// populated fields are preserved, missing fields stay absent.
func VideoResultFromMap(m map[string]interface{}) (*VideoAnalysisResult, error) {
	var result VideoAnalysisResult
	if err := fromMap(m, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func AudioResultFromMap(m map[string]interface{}) (*AudioAnalysisResult, error) {
	var result AudioAnalysisResult
	if err := fromMap(m, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result map: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal result map: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}
