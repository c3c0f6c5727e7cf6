package text

import (
	"strings"

	"github.com/adlens/adlens/internal/transcribe"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SegmentSentiment scores one transcript segment.
type SegmentSentiment struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// SentimentResult aggregates sentiment over a transcript.
type SentimentResult struct {
	OverallScore  float64            `json:"overall_score"`
	OverallLabel  string             `json:"overall_label"`
	PositiveRatio float64            `json:"positive_ratio"`
	Emotions      map[string]int     `json:"emotions"`
	Segments      []SegmentSentiment `json:"segments"`
}

var positiveWords = wordSet(
	"amazing", "awesome", "beautiful", "best", "better", "brilliant", "comfortable",
	"easy", "effective", "excellent", "exciting", "fantastic", "favorite", "fresh",
	"fun", "good", "great", "happy", "healthy", "incredible", "love", "loved",
	"perfect", "powerful", "premium", "proud", "quality", "reliable", "smart",
	"smooth", "stunning", "wonderful",
)

var negativeWords = wordSet(
	"annoying", "bad", "boring", "broken", "cheap", "difficult", "disappointing",
	"expensive", "fail", "failed", "frustrating", "hard", "hate", "horrible",
	"never", "pain", "painful", "poor", "problem", "sick", "slow", "struggle",
	"terrible", "tired", "ugly", "waste", "worst", "wrong",
)

var negationWords = wordSet("not", "no", "never", "don't", "doesn't", "won't", "can't", "isn't", "without")

// Emotion lexicons counted across the transcript.
var emotionLexicons = map[string][]string{
	"excitement": {"wow", "amazing", "incredible", "unbelievable", "finally", "exciting", "new"},
	"trust":      {"guaranteed", "proven", "trusted", "certified", "safe", "secure", "honest"},
	"urgency":    {"now", "today", "hurry", "fast", "quick", "limited", "before"},
}

// AnalyzeSentiment scores each transcript segment with a lexicon approach
// (negation within two tokens flips polarity) and aggregates polarity,
// positivity ratio and emotion counts.
func AnalyzeSentiment(segments []transcribe.Segment) *SentimentResult {
	if len(segments) == 0 {
		return nil
	}

	result := &SentimentResult{Emotions: make(map[string]int)}
	positives := 0

	for _, seg := range segments {
		score := scoreTokens(tokenize(seg.Text))
		label := SentimentNeutral
		if score > 0.05 {
			label = SentimentPositive
			positives++
		} else if score < -0.05 {
			label = SentimentNegative
		}
		result.Segments = append(result.Segments, SegmentSentiment{
			Text:  seg.Text,
			Score: score,
			Label: label,
		})
		result.OverallScore += score

		lower := strings.ToLower(seg.Text)
		for emotion, words := range emotionLexicons {
			for _, word := range words {
				if strings.Contains(lower, word) {
					result.Emotions[emotion]++
				}
			}
		}
	}

	result.OverallScore /= float64(len(segments))
	result.PositiveRatio = float64(positives) / float64(len(segments))
	switch {
	case result.OverallScore > 0.05:
		result.OverallLabel = SentimentPositive
	case result.OverallScore < -0.05:
		result.OverallLabel = SentimentNegative
	default:
		result.OverallLabel = SentimentNeutral
	}

	return result
}

func scoreTokens(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	score := 0.0
	for i, token := range tokens {
		polarity := 0.0
		if positiveWords[token] {
			polarity = 1
		} else if negativeWords[token] {
			polarity = -1
		}
		if polarity == 0 {
			continue
		}
		// Negation within the two preceding tokens flips polarity.
		for j := i - 2; j < i; j++ {
			if j >= 0 && negationWords[tokens[j]] {
				polarity = -polarity
				break
			}
		}
		score += polarity
	}
	return score / float64(len(tokens))
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.Trim(f, ".,!?;:'\"()"))
	}
	return tokens
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
