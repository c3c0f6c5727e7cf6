package text

import (
	"sort"
	"strings"

	"github.com/adlens/adlens/internal/transcribe"
)

// Ad-tone classes produced by the full-transcript heuristic.
const (
	ToneUrgent      = "urgent"
	ToneEnergetic   = "energetic"
	ToneInformative = "informative"
	ToneCalm        = "calm"
)

// KeywordResult holds keyword/CTA/appeal-axis data for one transcript.
type KeywordResult struct {
	Keywords   []string            `json:"keywords"`
	CTAPhrases []string            `json:"cta_phrases"`
	AppealAxes map[string][]string `json:"appeal_axes"`
	Tone       string              `json:"tone"`
}

var ctaPhrases = []string{
	"buy now", "shop now", "order now", "order today", "sign up", "subscribe",
	"learn more", "find out more", "download", "get yours", "get started",
	"try it free", "try for free", "click the link", "tap the link",
	"visit our", "don't miss", "limited time", "act now", "join now",
	"use code", "swipe up", "link in bio",
}

// Appeal-axis lexicons: marketing persuasion categories detected from text.
var appealLexicons = map[string][]string{
	"urgency":      {"now", "today", "hurry", "last chance", "ends soon", "before it's gone", "limited time"},
	"scarcity":     {"only", "limited", "exclusive", "while supplies last", "almost gone", "few left"},
	"social_proof": {"customers", "reviews", "loved by", "trusted by", "bestseller", "everyone is", "thousands of"},
	"authority":    {"experts", "doctors", "clinically", "proven", "certified", "official", "award"},
	"price_appeal": {"free", "discount", "sale", "percent off", "% off", "save", "deal", "affordable"},
	"quality":      {"premium", "high quality", "durable", "guaranteed", "handcrafted", "best in class"},
}

var stopWords = wordSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "is", "are", "was", "were", "been", "be", "this", "that", "from",
	"have", "has", "had", "will", "would", "could", "should", "your", "you",
	"our", "we", "they", "them", "it's", "its", "just", "about", "into", "when",
	"what", "which", "their", "there", "then", "than", "because", "really",
)

// ExtractKeywords pulls content keywords, CTA phrases and appeal-axis hits
// out of a full transcript.
func ExtractKeywords(transcript string) *KeywordResult {
	lower := strings.ToLower(transcript)

	result := &KeywordResult{
		AppealAxes: make(map[string][]string),
	}

	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			result.CTAPhrases = append(result.CTAPhrases, phrase)
		}
	}

	for axis, phrases := range appealLexicons {
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				result.AppealAxes[axis] = append(result.AppealAxes[axis], phrase)
			}
		}
	}

	result.Keywords = contentKeywords(lower, 10)
	result.Tone = ClassifyTone(transcript)

	return result
}

// contentKeywords ranks non-stopword tokens by frequency.
func contentKeywords(lower string, limit int) []string {
	counts := make(map[string]int)
	for _, token := range tokenize(lower) {
		if len(token) > 4 && !stopWords[token] {
			counts[token]++
		}
	}

	keywords := make([]string, 0, len(counts))
	for word := range counts {
		keywords = append(keywords, word)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// ClassifyTone is a coarse heuristic over the whole transcript: urgency
// lexicon hits dominate, then exclamation density, then sentence length.
func ClassifyTone(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return ToneCalm
	}
	lower := strings.ToLower(transcript)

	urgencyHits := 0
	for _, phrase := range appealLexicons["urgency"] {
		urgencyHits += strings.Count(lower, phrase)
	}
	if urgencyHits >= 3 {
		return ToneUrgent
	}

	exclamations := strings.Count(transcript, "!")
	words := len(strings.Fields(transcript))
	if words > 0 && float64(exclamations)/float64(words) > 0.02 {
		return ToneEnergetic
	}

	sentences := strings.Count(transcript, ".") + strings.Count(transcript, "?") + exclamations
	if sentences > 0 && words/sentences > 18 {
		return ToneInformative
	}
	return ToneCalm
}

// HookText joins the segments that start inside the first windowSeconds of
// audio; the highest-leverage attention window of an ad.
func HookText(segments []transcribe.Segment, windowSeconds float64) string {
	windowMS := int64(windowSeconds * 1000)
	var parts []string
	for _, seg := range segments {
		if seg.StartTimeMS < windowMS {
			parts = append(parts, strings.TrimSpace(seg.Text))
		}
	}
	return strings.Join(parts, " ")
}
