// Package metrics exposes Prometheus metrics for the HTTP server and the
// content codec.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pestline/pestline/domain/content"
)

// ServerMetrics holds a private registry with the standard Go and process
// collectors plus the server's own metrics. Labels are limited to method,
// route pattern and status to keep cardinality bounded.
type ServerMetrics struct {
	reg            *prometheus.Registry
	handler        http.Handler
	inflight       prometheus.Gauge
	reqTotal       *prometheus.CounterVec
	reqDur         *prometheus.HistogramVec
	respBytes      *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	renders        *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec
}

// New returns metrics registered on a fresh registry.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304},
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP server errors by method and route",
		}, []string{"method", "route"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_decode_failures_total",
			Help: "Content trees that failed to decode, by source and error kind",
		}, []string{"source", "kind"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_renders_total",
			Help: "Reports rendered by output format",
		}, []string{"format"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"version", "commit"}),
	}
	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.errorsTotal,
		m.decodeFailures,
		m.renders,
		m.buildInfo,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ServerMetrics) Handler() http.Handler {
	return m.handler
}

// SetBuildInfo is set once at startup.
func (m *ServerMetrics) SetBuildInfo(version, commit string) {
	m.buildInfo.Reset()
	m.buildInfo.WithLabelValues(version, commit).Set(1)
}

// IncDecodeFailure counts a failed content decode. Its signature matches
// service.WithDecodeFailureHook.
func (m *ServerMetrics) IncDecodeFailure(source string, kind content.Kind) {
	m.decodeFailures.WithLabelValues(source, kind.String()).Inc()
}

// IncRender counts a rendered report.
func (m *ServerMetrics) IncRender(format string) {
	m.renders.WithLabelValues(format).Inc()
}
