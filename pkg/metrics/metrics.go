package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProvisionAttempts records candidate repository provisioning attempts by
	// result (success|config_error|upstream_error).
	ProvisionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takehome_provision_attempts_total",
			Help: "Total number of candidate repository provisioning attempts",
		},
		[]string{"result"},
	)

	// InviteTransitions counts invite lifecycle transitions by target state
	// (started|submitted|expired).
	InviteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takehome_invite_transitions_total",
			Help: "Total number of invite lifecycle transitions",
		},
		[]string{"to"},
	)

	// TokensIssued counts repository access tokens minted.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "takehome_repo_tokens_issued_total",
			Help: "Number of repository access tokens issued",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "takehome_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
