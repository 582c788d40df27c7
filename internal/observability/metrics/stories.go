package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoryAccessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_access_decisions_total",
			Help: "Total number of access control decisions by operation and result",
		},
		[]string{"operation", "decision"},
	)

	StoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_operations_total",
			Help: "Total number of story use case executions by outcome",
		},
		[]string{"operation", "outcome"},
	)

	StorySearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "story_search_results",
			Help:    "Number of stories returned by title search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	UserLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_logins_total",
			Help: "Total number of login attempts by provider and result",
		},
		[]string{"provider", "result"},
	)

	FeedConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "story_feed_connected_clients",
			Help: "Number of websocket clients subscribed to the story feed",
		},
	)

	FeedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_feed_events_total",
			Help: "Total number of story feed events broadcast",
		},
		[]string{"type"},
	)

	FeedDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "story_feed_dropped_total",
			Help: "Total number of feed events dropped for slow clients",
		},
	)
)
