// Package metrics exposes Prometheus instrumentation for the upload intake,
// the extraction pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	service  string

	uploadsTotal       *prometheus.CounterVec
	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	extractionInFlight prometheus.Gauge
	queueLag           prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "supplierdocs",
				Subsystem: "intake",
				Name:      "uploads_total",
				Help:      "Upload attempts by outcome.",
			},
			[]string{"service", "outcome"},
		),
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "supplierdocs",
				Subsystem: "pipeline",
				Name:      "extractions_total",
				Help:      "Extraction attempts by provider and outcome.",
			},
			[]string{"service", "provider", "outcome"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "supplierdocs",
				Subsystem: "pipeline",
				Name:      "extraction_duration_seconds",
				Help:      "Extraction duration in seconds by outcome.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "outcome"},
		),
		extractionInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "supplierdocs",
				Subsystem:   "pipeline",
				Name:        "extractions_in_flight",
				Help:        "Number of in-flight extractions.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		queueLag: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "supplierdocs",
				Subsystem:   "pipeline",
				Name:        "queue_lag_seconds",
				Help:        "Delay between enqueue and extraction start.",
				Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "supplierdocs",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"service", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "supplierdocs",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "route"},
		),
	}

	registry.MustRegister(
		m.uploadsTotal, m.extractionsTotal, m.extractionDuration,
		m.extractionInFlight, m.queueLag, m.httpRequests, m.httpDuration,
	)
	m.service = service
	return m
}

func (m *Metrics) ObserveUpload(outcome string) {
	m.uploadsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *Metrics) ObserveExtraction(provider, outcome string, d time.Duration) {
	m.extractionsTotal.WithLabelValues(m.service, provider, outcome).Inc()
	m.extractionDuration.WithLabelValues(m.service, outcome).Observe(d.Seconds())
}

func (m *Metrics) ExtractionStarted()  { m.extractionInFlight.Inc() }
func (m *Metrics) ExtractionFinished() { m.extractionInFlight.Dec() }

func (m *Metrics) ObserveQueueLag(d time.Duration) {
	m.queueLag.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	m.httpRequests.WithLabelValues(m.service, route, code).Inc()
	m.httpDuration.WithLabelValues(m.service, route).Observe(d.Seconds())
}

// Handler serves the scrape endpoint for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
