package service

import "github.com/AlibekovAA/storybooks/internal/observability/metrics"

const providerGoogle = "google"

func recordLogin(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.UserLoginsTotal.WithLabelValues(providerGoogle, result).Inc()
}
