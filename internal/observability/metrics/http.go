package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	transactionsPerDoc *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	feedbackTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bse",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bse",
			Subsystem: "extraction",
			Name:      "documents_total",
			Help:      "Total extraction attempts by method and outcome.",
		},
		[]string{"service", "method", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bse",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "End-to-end extraction duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "method"},
	)
	transactionsPerDoc := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bse",
			Subsystem: "extraction",
			Name:      "transactions_per_document",
			Help:      "Distribution of transactions extracted per document.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"service", "method"},
	)
	validationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bse",
			Subsystem: "validation",
			Name:      "failures_total",
			Help:      "Total failed validation checks by check name.",
		},
		[]string{"service", "check"},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bse",
			Subsystem: "feedback",
			Name:      "reports_total",
			Help:      "Total feedback reports by transition.",
		},
		[]string{"service", "transition"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		extractionsTotal,
		extractionDuration,
		transactionsPerDoc,
		validationFailures,
		feedbackTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		extractionsTotal:   extractionsTotal,
		extractionDuration: extractionDuration,
		transactionsPerDoc: transactionsPerDoc,
		validationFailures: validationFailures,
		feedbackTotal:      feedbackTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/admin/templates/"):
		return "/v1/admin/templates/{template_id}"
	case strings.HasPrefix(path, "/v1/admin/feedback/"):
		return "/v1/admin/feedback/{report_id}"
	default:
		return path
	}
}

// RecordExtraction tracks one finished extraction attempt.
func (m *HTTPServerMetrics) RecordExtraction(service, method string, success bool, transactions int, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	if method == "" {
		method = "none"
	}
	m.extractionsTotal.WithLabelValues(service, method, status).Inc()
	m.extractionDuration.WithLabelValues(service, method).Observe(duration.Seconds())
	if success {
		m.transactionsPerDoc.WithLabelValues(service, method).Observe(float64(transactions))
	}
}

// RecordValidationFailure counts one failed check (balance, date_continuity,
// page_continuity).
func (m *HTTPServerMetrics) RecordValidationFailure(service, check string) {
	m.validationFailures.WithLabelValues(service, check).Inc()
}

// RecordFeedback counts report lifecycle transitions (submitted, analyzed,
// resolved, dismissed).
func (m *HTTPServerMetrics) RecordFeedback(service, transition string) {
	m.feedbackTotal.WithLabelValues(service, transition).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
