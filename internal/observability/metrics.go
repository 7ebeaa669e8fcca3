package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate by route and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per route.
	HTTPRequestDuration *prometheus.HistogramVec

	// Regrid calls by backend and resampling path.
	RegridTotal *prometheus.CounterVec

	// Regrid latency per backend. Watch for: hybrid calls on large grids.
	RegridDuration *prometheus.HistogramVec

	// Output cells left missing after regridding. A jump usually means a bounds/extent mismatch.
	RegridMaskedCellsTotal *prometheus.CounterVec

	// Regrid failures by backend and reason (unknown_method, unavailable, invalid_input, internal).
	RegridErrorsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonize_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harmonize_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	RegridTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonize_regrid_total",
			Help: "Total number of regrid operations by method and strategy",
		},
		[]string{"method", "strategy"},
	)
	RegridDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harmonize_regrid_duration_seconds",
			Help:    "Regrid latency in seconds",
			Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 30, 120},
		},
		[]string{"method"},
	)
	RegridMaskedCellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonize_regrid_masked_cells_total",
			Help: "Output values left missing because of insufficient source coverage",
		},
		[]string{"method"},
	)
	RegridErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harmonize_regrid_errors_total",
			Help: "Total number of failed regrid operations",
		},
		[]string{"method", "reason"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration,
		RegridTotal, RegridDuration, RegridMaskedCellsTotal, RegridErrorsTotal,
	)
}

// RecordRegrid records one successful regrid.
func RecordRegrid(method, strategy string, elapsed time.Duration, masked int) {
	RegridTotal.WithLabelValues(method, strategy).Inc()
	RegridDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if masked > 0 {
		RegridMaskedCellsTotal.WithLabelValues(method).Add(float64(masked))
	}
}

// RecordRegridError records one failed regrid.
func RecordRegridError(method, reason string) {
	RegridErrorsTotal.WithLabelValues(method, reason).Inc()
}

// MetricsHandler serves the registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
