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

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	presenceTransitions *prometheus.CounterVec
	tokenDecodes        *prometheus.CounterVec
	qrRenders           *prometheus.CounterVec
	throttledTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "checkin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "checkin",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	presenceTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "presence",
			Name:      "transitions_total",
			Help:      "Confirmed presence writes by previous and new status.",
		},
		[]string{"service", "from", "to"},
	)
	tokenDecodes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "token",
			Name:      "decodes_total",
			Help:      "Token decode requests by kind and result.",
		},
		[]string{"service", "kind", "result"},
	)
	qrRenders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "qr",
			Name:      "renders_total",
			Help:      "QR renders by token kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	throttledTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "http",
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by traffic control by reason.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		presenceTransitions,
		tokenDecodes,
		qrRenders,
		throttledTotal,
	)

	return &HTTPServerMetrics{
		service:             service,
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		presenceTransitions: presenceTransitions,
		tokenDecodes:        tokenDecodes,
		qrRenders:           qrRenders,
		throttledTotal:      throttledTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
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
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds event and attendee ids out of the label.
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "v1" && parts[1] == "events" {
		parts[2] = "{event_id}"
		if len(parts) >= 5 && parts[3] == "attendees" && parts[4] != "status" {
			parts[4] = "{attendee_id}"
		}
		return "/" + strings.Join(parts, "/")
	}
	return path
}

// ObservePresenceTransition satisfies usecase.TransitionRecorder.
func (m *HTTPServerMetrics) ObservePresenceTransition(from, to domain.PresenceStatus) {
	m.presenceTransitions.WithLabelValues(m.service, statusLabel(from), statusLabel(to)).Inc()
}

func (m *HTTPServerMetrics) RecordTokenDecode(kind, result string) {
	m.tokenDecodes.WithLabelValues(m.service, kind, result).Inc()
}

func (m *HTTPServerMetrics) RecordQRRender(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.qrRenders.WithLabelValues(m.service, kind, status).Inc()
}

func (m *HTTPServerMetrics) RecordThrottled(reason string) {
	m.throttledTotal.WithLabelValues(m.service, reason).Inc()
}

func statusLabel(s domain.PresenceStatus) string {
	if s == "" {
		return "none"
	}
	return strings.ToLower(strings.ReplaceAll(string(s), " ", "_"))
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
