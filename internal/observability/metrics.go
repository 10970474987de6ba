package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "alerter", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alerter", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	LabelSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "alerter", Name: "label_submissions_total", Help: "Label submissions by outcome."},
		[]string{"outcome"}, // outcome: ok|stale|persistence_error
	)
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "alerter", Name: "sessions_started_total", Help: "Review sessions started by source."},
		[]string{"source"}, // source: warehouse|csv
	)
	WorkingSetSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alerter", Name: "working_set_rows",
			Help:    "Rows loaded per review session.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// InitRegistry builds a dedicated registry with the alerter collectors.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, LabelSubmissions, SessionsStarted, WorkingSetSize)
	return reg
}

// MetricsHandler exposes the registry for scraping.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveSubmission records a label submission outcome.
func ObserveSubmission(outcome string) {
	LabelSubmissions.WithLabelValues(outcome).Inc()
}

// ObserveSessionStart records a new session and its working-set size.
func ObserveSessionStart(source string, rows int) {
	SessionsStarted.WithLabelValues(source).Inc()
	WorkingSetSize.Observe(float64(rows))
}
