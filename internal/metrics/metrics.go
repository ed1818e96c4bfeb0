package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are created eagerly so callers never see nil, and registered
// once by Register at startup.
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatordash_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "creatordash_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatordash_refresh_total",
			Help: "Dashboard refresh cycles, by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatordash_upstream_errors_total",
			Help: "Failed calls to Google APIs and the prompt relay, by source.",
		},
		[]string{"source"},
	)

	RelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatordash_relay_duration_seconds",
			Help:    "Prompt execution latency including retries, by backend.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"backend"},
	)

	TokenCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "creatordash_token_cache_hits_total",
			Help: "Startup session resumes served from the token cache.",
		},
	)

	TokenCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "creatordash_token_cache_misses_total",
			Help: "Token cache lookups that found nothing usable.",
		},
	)
)

// Register adds all collectors to the default registry. Call once at startup.
func Register() {
	prometheus.MustRegister(
		RequestDuration,
		RequestsInFlight,
		RefreshTotal,
		UpstreamErrors,
		RelayDuration,
		TokenCacheHits,
		TokenCacheMisses,
	)
}
