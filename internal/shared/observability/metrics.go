package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	HookInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notebook_hook_invocations_total",
		Help: "Total number of middleware hook invocations by hook and outcome.",
	}, []string{"hook", "status"})

	HookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notebook_hook_seconds",
		Help:    "Time spent running a middleware hook stack.",
		Buckets: prometheus.DefBuckets,
	}, []string{"hook"})

	CompletionSuggestions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notebook_completion_suggestions",
		Help:    "Number of suggestions returned per completion request.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	CompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notebook_completion_seconds",
		Help:    "Time spent serving a completion request end to end.",
		Buckets: prometheus.DefBuckets,
	})

	RealmEvalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notebook_realm_eval_total",
		Help: "Total number of cells evaluated in the realm by outcome.",
	}, []string{"status"})

	TransportRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notebook_transport_requests_total",
		Help: "Total number of transport requests by operation.",
	}, []string{"op"})

	TransportRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notebook_transport_rate_limited_total",
		Help: "Total number of transport requests rejected by the rate limiter.",
	})

	ConfigReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notebook_config_reloads_total",
		Help: "Total number of configuration reloads applied.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notebook_watcher_events_total",
		Help: "Total number of file system events seen by the preload watcher.",
	})
)
