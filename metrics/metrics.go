// Package metrics holds the Prometheus collectors shared by the client and the backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClientAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_client_attempts_total",
			Help: "Scrape backend calls made by the orchestrator, labeled by result.",
		},
		[]string{"result"},
	)
	ClientAttemptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitepulse_client_attempt_duration_seconds",
			Help:    "Duration of single scrape backend calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	ClientOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_client_outcomes_total",
			Help: "Completed orchestrator calls, labeled by outcome kind or error code.",
		},
		[]string{"outcome"},
	)
	BackendOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitepulse_backend_online",
			Help: "1 when the last liveness probe succeeded, 0 otherwise.",
		},
	)
	ServerScrapes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_server_scrapes_total",
			Help: "Scrapes served by the backend, labeled by HTTP status code.",
		},
		[]string{"status_code"},
	)
	ServerScrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitepulse_server_scrape_duration_seconds",
			Help:    "End-to-end duration of backend scrapes in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	RelatedPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_related_pages_total",
			Help: "Related page fetches, labeled by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ClientAttempts)
	prometheus.MustRegister(ClientAttemptDuration)
	prometheus.MustRegister(ClientOutcomes)
	prometheus.MustRegister(BackendOnline)
	prometheus.MustRegister(ServerScrapes)
	prometheus.MustRegister(ServerScrapeDuration)
	prometheus.MustRegister(RelatedPages)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
