// Package obvy carries the service observability: prometheus counters for
// calculators, scans and HTTP requests, and OTLP trace export.
package obvy

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emecwheel"

// Stats is a private prometheus registry with the service metrics.
type Stats struct {
	Registry *prometheus.Registry

	Calculators  *prometheus.CounterVec
	BuildErrors  prometheus.Counter
	ScanSamples  prometheus.Counter
	ScansRunning prometheus.Gauge
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
}

// NewStats creates the registry and registers every collector on it.
func NewStats() *Stats {
	s := &Stats{
		Registry: prometheus.NewRegistry(),
		Calculators: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculators_built_total",
			Help:      "Wheel calculators constructed, by variant.",
		}, []string{"variant"}),
		BuildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculator_errors_total",
			Help:      "Failed calculator constructions.",
		}),
		ScanSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_samples_total",
			Help:      "Points evaluated by scans.",
		}),
		ScansRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scans_running",
			Help:      "Scans currently in progress.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.Calculators, s.BuildErrors, s.ScanSamples, s.ScansRunning, s.Requests, s.Latency,
	)
	return s
}

// Handler serves the registry in the prometheus exposition format.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

// CalculatorBuilt records a calculator construction outcome.
func (s *Stats) CalculatorBuilt(variant string, err error) {
	if err != nil {
		s.BuildErrors.Inc()
		return
	}
	s.Calculators.WithLabelValues(variant).Inc()
}

// ObserveRequest records one served request.
func (s *Stats) ObserveRequest(route string, code int, d time.Duration) {
	s.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	s.Latency.WithLabelValues(route).Observe(d.Seconds())
}
