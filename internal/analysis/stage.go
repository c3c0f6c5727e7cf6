package analysis

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/adlens/adlens/internal/metrics"
)

// runStage guards one pipeline stage. A stage failure is logged with stage
// identity, counted, and reported as absence; it never aborts sibling
// stages. The orchestrator never fabricates data for a failed stage.
func runStage[T any](logger zerolog.Logger, stage string, fn func() (T, error)) (T, bool) {
	start := time.Now()
	out, err := fn()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageFailures.WithLabelValues(stage).Inc()
		logger.Warn().Err(err).Str("stage", stage).Msg("stage failed, result field omitted")
		var zero T
		return zero, false
	}
	logger.Debug().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("stage complete")
	return out, true
}
