// Package metrics provides Prometheus metrics export for the chat service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports chat metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	chatRequests *prometheus.CounterVec
	chatLatency  *prometheus.HistogramVec
	llmFailures  prometheus.Counter
	uploads      *prometheus.CounterVec
}

// NewExporter creates an exporter with its own registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagechat",
			Name:      "chat_requests_total",
			Help:      "Total chat API requests by operation and status.",
		}, []string{"operation", "status"}),
		chatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sagechat",
			Name:      "chat_request_duration_seconds",
			Help:      "Chat API request latency by operation.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation"}),
		llmFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sagechat",
			Name:      "llm_failures_total",
			Help:      "Total completion calls that returned an error.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagechat",
			Name:      "uploads_total",
			Help:      "Total uploaded files by extension and outcome.",
		}, []string{"extension", "outcome"}),
	}

	registry.MustRegister(e.chatRequests, e.chatLatency, e.llmFailures, e.uploads)
	return e
}

// ObserveRequest records one chat API request.
func (e *Exporter) ObserveRequest(operation, status string, duration time.Duration) {
	e.chatRequests.WithLabelValues(operation, status).Inc()
	e.chatLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLLMFailure records a failed completion call.
func (e *Exporter) ObserveLLMFailure() {
	e.llmFailures.Inc()
}

// ObserveUpload records one uploaded file by extension ("txt", "csv", "pdf",
// "other") and outcome ("ok", "unsupported", "error").
func (e *Exporter) ObserveUpload(extension, outcome string) {
	e.uploads.WithLabelValues(extension, outcome).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
