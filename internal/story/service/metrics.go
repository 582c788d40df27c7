package service

import (
	"github.com/AlibekovAA/storybooks/internal/observability/metrics"
	"github.com/AlibekovAA/storybooks/internal/story/policy"
)

func recordDecision(operation string, decision policy.Decision) {
	metrics.StoryAccessDecisionsTotal.WithLabelValues(operation, decision.String()).Inc()
}

func recordOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.StoryOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func observeSearchResults(n int) {
	metrics.StorySearchResults.Observe(float64(n))
}
