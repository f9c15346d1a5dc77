// Package prometheus registers and records the service's metrics.
// AppMetrics satisfies the observer interfaces of the classification and
// overlay packages, so those packages never import prometheus directly.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultOracleDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Classification layer
	OracleRequestsTotal   *prometheus.CounterVec
	OracleRequestDuration *prometheus.HistogramVec
	PlotsClassifiedTotal  prometheus.Counter
	UploadsTotal          *prometheus.CounterVec

	// Overlay layer
	OverlayLoadsTotal *prometheus.CounterVec

	// Session layer
	SessionOpsTotal *prometheus.CounterVec
}

// NewAppMetrics registers all metrics on a fresh registry.
func NewAppMetrics() *AppMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &AppMetrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: DefaultHTTPDurationBuckets,
		}, []string{"method", "path"}),
		OracleRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Oracle calls by dataset and outcome",
		}, []string{"oracle", "outcome"}),
		OracleRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Oracle call duration",
			Buckets: DefaultOracleDurationBuckets,
		}, []string{"oracle"}),
		PlotsClassifiedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "plots_classified_total",
			Help: "Plots that received a verdict",
		}),
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Upload requests by outcome",
		}, []string{"status"}),
		OverlayLoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_loads_total",
			Help: "Overlay layer loads by serving source",
		}, []string{"layer", "source"}),
		SessionOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "session_ops_total",
			Help: "Session store operations",
		}, []string{"op", "outcome"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *AppMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OracleCall implements the classifier's metrics observer.
func (m *AppMetrics) OracleCall(oracle, outcome string, elapsed time.Duration) {
	m.OracleRequestsTotal.WithLabelValues(oracle, outcome).Inc()
	m.OracleRequestDuration.WithLabelValues(oracle).Observe(elapsed.Seconds())
}

// OverlayLoad implements the overlay loader's observer.
func (m *AppMetrics) OverlayLoad(layer, source string) {
	m.OverlayLoadsTotal.WithLabelValues(layer, source).Inc()
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordUpload records an upload outcome and how many plots it classified.
func (m *AppMetrics) RecordUpload(status string, plots int) {
	m.UploadsTotal.WithLabelValues(status).Inc()
	m.PlotsClassifiedTotal.Add(float64(plots))
}

// RecordSessionOp records a session store operation and its outcome
// ("ok", "miss", "error").
func (m *AppMetrics) RecordSessionOp(op, outcome string) {
	m.SessionOpsTotal.WithLabelValues(op, outcome).Inc()
}
