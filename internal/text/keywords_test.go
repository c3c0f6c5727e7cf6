package text

import (
	"strings"
	"testing"

	"github.com/adlens/adlens/internal/transcribe"
)

func TestExtractKeywords(t *testing.T) {
	transcript := "Our premium skincare serum is clinically proven. " +
		"Thousands of customers love this serum. " +
		"Shop now and use code GLOW for twenty percent off. Limited time only!"

	result := ExtractKeywords(transcript)
	if result == nil {
		t.Fatal("Expected result, got nil")
	}

	wantCTAs := map[string]bool{"shop now": true, "use code": true, "limited time": true}
	for _, cta := range result.CTAPhrases {
		if !wantCTAs[cta] {
			t.Errorf("Unexpected CTA phrase: %s", cta)
		}
		delete(wantCTAs, cta)
	}
	if len(wantCTAs) != 0 {
		t.Errorf("Missing CTA phrases: %v", wantCTAs)
	}

	if len(result.AppealAxes["authority"]) == 0 {
		t.Error("Expected authority appeal hits (clinically, proven)")
	}
	if len(result.AppealAxes["social_proof"]) == 0 {
		t.Error("Expected social_proof appeal hits")
	}
	if len(result.AppealAxes["urgency"]) == 0 {
		t.Error("Expected urgency appeal hits")
	}

	found := false
	for _, kw := range result.Keywords {
		if kw == "serum" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'serum' among keywords, got %v", result.Keywords)
	}
}

func TestClassifyTone(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{"empty", "", ToneCalm},
		{
			"urgent",
			"Act now! Order today, the sale ends soon. Hurry, only available now.",
			ToneUrgent,
		},
		{
			"energetic",
			"This changed my life! I could not believe it! Try it yourself!",
			ToneEnergetic,
		},
		{
			"informative",
			"The formula combines hyaluronic acid with vitamin C to improve skin elasticity over eight weeks of twice daily application in most users according to the study.",
			ToneInformative,
		},
		{
			"calm",
			"Welcome to our studio. Take a breath. Relax.",
			ToneCalm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTone(tt.transcript); got != tt.want {
				t.Errorf("ClassifyTone(%q): expected %s, got %s", tt.transcript, tt.want, got)
			}
		})
	}
}

func TestHookText(t *testing.T) {
	segments := []transcribe.Segment{
		{Text: "Stop scrolling.", StartTimeMS: 0, EndTimeMS: 1200},
		{Text: "This will change your mornings.", StartTimeMS: 1200, EndTimeMS: 2800},
		{Text: "Our coffee is roasted daily.", StartTimeMS: 3500, EndTimeMS: 6000},
	}

	hook := HookText(segments, 3.0)
	if !strings.Contains(hook, "Stop scrolling.") || !strings.Contains(hook, "change your mornings") {
		t.Errorf("Expected both early segments in hook, got %q", hook)
	}
	if strings.Contains(hook, "roasted daily") {
		t.Errorf("Expected late segment excluded from hook, got %q", hook)
	}

	if HookText(nil, 3.0) != "" {
		t.Error("Expected empty hook for no segments")
	}
}
