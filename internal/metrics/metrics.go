package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	SignAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signing_sign_attempts_total",
			Help: "Signing attempts by outcome.",
		},
		[]string{"service", "result"},
	)

	DocumentsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signing_documents_completed_total",
			Help: "Documents locked after all required signatures were captured, by path.",
		},
		[]string{"service", "path"},
	)

	CompletionDeferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signing_completion_deferred_total",
			Help: "Completion checks that failed after capture and were left for recheck.",
		},
		[]string{"service"},
	)

	AuditAppendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signing_audit_append_failures_total",
			Help: "Audit entries that could not be appended, by action.",
		},
		[]string{"service", "action"},
	)

	CompletionPublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signing_completion_publish_failures_total",
			Help: "Completion events that could not be published.",
		},
		[]string{"service"},
	)
)

var (
	registerOnce sync.Once
	serviceName  = "doc-signing"
)

// MustRegister sets the service label and registers every collector with the
// default registry. Safe to call more than once; call before serving traffic.
func MustRegister(name string) {
	registerOnce.Do(func() {
		if name != "" {
			serviceName = name
		}
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			SignAttemptsTotal,
			DocumentsCompletedTotal,
			CompletionDeferredTotal,
			AuditAppendFailuresTotal,
			CompletionPublishFailuresTotal,
		)
	})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(serviceName, method, path, status).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(serviceName, method, path).Observe(seconds)
}

// IncSignAttempt counts a signing attempt outcome (captured, already_signed, expired, ...).
func IncSignAttempt(result string) {
	SignAttemptsTotal.WithLabelValues(serviceName, result).Inc()
}

// IncDocumentCompleted counts a lock transition; path is "sign" or "recheck".
func IncDocumentCompleted(path string) {
	DocumentsCompletedTotal.WithLabelValues(serviceName, path).Inc()
}

// IncCompletionDeferred counts a completion check left for the recheck path.
func IncCompletionDeferred() {
	CompletionDeferredTotal.WithLabelValues(serviceName).Inc()
}

// IncAuditAppendFailure counts an audit append that did not persist.
func IncAuditAppendFailure(action string) {
	AuditAppendFailuresTotal.WithLabelValues(serviceName, action).Inc()
}

// IncCompletionPublishFailure counts a completion event that was dropped.
func IncCompletionPublishFailure() {
	CompletionPublishFailuresTotal.WithLabelValues(serviceName).Inc()
}
