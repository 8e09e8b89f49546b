package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bse",
			Subsystem: "worker",
			Name:      "feedback_analysis_total",
			Help:      "Total processed feedback-analysis jobs by status.",
		},
		[]string{"service", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bse",
			Subsystem: "worker",
			Name:      "feedback_analysis_duration_seconds",
			Help:      "Feedback-analysis duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	analysisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bse",
			Subsystem: "worker",
			Name:      "feedback_analysis_in_flight",
			Help:      "Number of in-flight feedback-analysis jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(analysisTotal, analysisDuration, analysisInFlight)

	return &WorkerMetrics{
		registry:         registry,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		analysisInFlight: analysisInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveAnalysis(service string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.analysisTotal.WithLabelValues(service, status).Inc()
	m.analysisDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) TrackInFlight() func() {
	m.analysisInFlight.Inc()
	return func() { m.analysisInFlight.Dec() }
}
