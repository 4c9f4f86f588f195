package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/golimits/limits"
)

const namespace = "golimits"

// Metrics holds the Prometheus collectors on a private registry, so several
// servers (and tests) can coexist in one process.
type Metrics struct {
	registry      *prometheus.Registry
	analyses      *prometheus.CounterVec
	engineCalls   *prometheus.CounterVec
	engineLatency *prometheus.HistogramVec
	requests      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome (ok, invalid, error).",
		}, []string{"outcome"}),
		engineCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Symbolic engine calls by operation and result.",
		}, []string{"op", "result"}),
		engineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "call_duration_seconds",
			Help:      "Symbolic engine call latency.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.analyses, m.engineCalls, m.engineLatency, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveEngine records one engine call. Its signature matches limits.Observer.
func (m *Metrics) ObserveEngine(op string, elapsed time.Duration, err error) {
	m.engineLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	m.engineCalls.WithLabelValues(op, engineResult(err)).Inc()
}

func engineResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, limits.ErrEngineTimeout):
		return "timeout"
	case errors.Is(err, limits.ErrEnginePanic):
		return "panic"
	}
	return "error"
}

// ObserveAnalysis records the outcome of one Analyze call.
func (m *Metrics) ObserveAnalysis(err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case limits.IsValidation(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// RequestCounter returns the counter for one route and status code.
func (m *Metrics) RequestCounter(route string, code int) prometheus.Counter {
	return m.requests.WithLabelValues(route, strconv.Itoa(code))
}

func (m *Metrics) AnalysisCounter(outcome string) prometheus.Counter {
	return m.analyses.WithLabelValues(outcome)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
