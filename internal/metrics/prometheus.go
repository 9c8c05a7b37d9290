package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkea_panel_http_requests_total",
			Help: "Total number of HTTP requests served by the panel",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parkea_panel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkea_panel_remote_calls_total",
			Help: "Calls made to the remote parking backend, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	retryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkea_panel_retry_attempts_total",
			Help: "Attempts made by the retry wrapper, by operation",
		},
		[]string{"operation"},
	)

	approvalSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkea_panel_approval_submissions_total",
			Help: "Approval request submissions, by final workflow stage",
		},
		[]string{"stage"},
	)

	remoteUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parkea_panel_remote_up",
			Help: "1 when the last health check against the remote backend succeeded",
		},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, route string, statusCode int, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, statusClass(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

func RecordRemoteCall(operation, outcome string) {
	remoteCallsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordRetryAttempt(operation string) {
	retryAttemptsTotal.WithLabelValues(operation).Inc()
}

func RecordApprovalSubmission(stage string) {
	approvalSubmissionsTotal.WithLabelValues(stage).Inc()
}

func SetRemoteUp(up bool) {
	if up {
		remoteUp.Set(1)
		return
	}
	remoteUp.Set(0)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusClass(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	case statusCode >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
