package scene

// Derived analyses over scene partitions. Pure functions, no I/O.

// hookWindowSeconds bounds the attention window analyzed separately at the
// start of an ad.
const hookWindowSeconds = 3.0

// Summary is the persisted shape of a scene partition.
type Summary struct {
	SceneCount             int            `json:"scene_count"`
	AverageDurationSeconds float64        `json:"average_duration_seconds"`
	PacingScore            float64        `json:"pacing_score"`
	TransitionCounts       map[string]int `json:"transition_counts"`
	Hook                   *HookWindow    `json:"hook,omitempty"`
}

// HookWindow describes the scenes starting inside the first seconds.
type HookWindow struct {
	SceneCount             int     `json:"scene_count"`
	AverageDurationSeconds float64 `json:"average_duration_seconds"`
	HasEarlyCut            bool    `json:"has_early_cut"`
}

// PacingScore maps average scene duration onto 0-100: an average of 1s or
// faster scores 100, 10s or slower scores 0, linear in between.
func PacingScore(scenes []Scene) float64 {
	if len(scenes) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range scenes {
		total += s.DurationSeconds
	}
	avg := total / float64(len(scenes))

	switch {
	case avg <= 1:
		return 100
	case avg >= 10:
		return 0
	default:
		return 100 * (10 - avg) / 9
	}
}

// AnalyzeHookWindow restricts analysis to scenes whose start lies inside the
// hook window. Returns nil when no scene starts there.
func AnalyzeHookWindow(scenes []Scene) *HookWindow {
	var inWindow []Scene
	for _, s := range scenes {
		if s.StartTimeSeconds < hookWindowSeconds {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) == 0 {
		return nil
	}

	total := 0.0
	for _, s := range inWindow {
		total += s.DurationSeconds
	}

	return &HookWindow{
		SceneCount:             len(inWindow),
		AverageDurationSeconds: total / float64(len(inWindow)),
		HasEarlyCut:            len(inWindow) > 1,
	}
}

// Summarize folds a scene partition into its persisted summary.
func Summarize(scenes []Scene) *Summary {
	if len(scenes) == 0 {
		return nil
	}

	total := 0.0
	transitions := make(map[string]int)
	for _, s := range scenes {
		total += s.DurationSeconds
		transitions[s.TransitionType]++
	}

	return &Summary{
		SceneCount:             len(scenes),
		AverageDurationSeconds: total / float64(len(scenes)),
		PacingScore:            PacingScore(scenes),
		TransitionCounts:       transitions,
		Hook:                   AnalyzeHookWindow(scenes),
	}
}
