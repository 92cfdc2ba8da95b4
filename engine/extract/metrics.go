package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "takeoff_extract_attempts_total",
		Help: "Capability call attempts by outcome.",
	}, []string{"outcome"})

	mCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "takeoff_extract_cache_total",
		Help: "Cache lookups by result.",
	}, []string{"result"})

	mInFlightShared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "takeoff_extract_inflight_shared_total",
		Help: "Requests that piggybacked on an in-flight call for the same key.",
	})

	mCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "takeoff_extract_call_duration_seconds",
		Help:    "Capability call latency per attempt.",
		Buckets: prometheus.DefBuckets,
	})

	mTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "takeoff_extract_tokens_total",
		Help: "Tokens exchanged with the capability.",
	}, []string{"direction"})
)
