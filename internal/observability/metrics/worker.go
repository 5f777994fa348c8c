package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// WorkerMetrics implements ports.IngestObserver for the ingestion worker.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	documentTotal     *prometheus.CounterVec
	documentDuration  *prometheus.HistogramVec
	documentInFlight  prometheus.Gauge
	batchDuration     prometheus.Histogram
	batchDocuments    *prometheus.GaugeVec
	lastBatchFinished prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	documentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkin",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total extracted documents by status.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "checkin",
			Subsystem: "ingest",
			Name:      "document_duration_seconds",
			Help:      "Per-document read and extraction duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	documentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "checkin",
			Subsystem:   "ingest",
			Name:        "documents_in_flight",
			Help:        "Number of documents being extracted.",
			ConstLabels: constLabels,
		},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "checkin",
			Subsystem:   "ingest",
			Name:        "batch_duration_seconds",
			Help:        "Duration of whole ingestion batches in seconds.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		},
	)
	batchDocuments := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "checkin",
			Subsystem: "ingest",
			Name:      "last_batch_documents",
			Help:      "Document counts of the most recent batch by outcome.",
		},
		[]string{"service", "outcome"},
	)
	lastBatchFinished := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "checkin",
			Subsystem:   "ingest",
			Name:        "last_batch_finished_timestamp_seconds",
			Help:        "Unix time the most recent batch finished.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(documentTotal, documentDuration, documentInFlight, batchDuration, batchDocuments, lastBatchFinished)

	return &WorkerMetrics{
		service:           service,
		registry:          registry,
		documentTotal:     documentTotal,
		documentDuration:  documentDuration,
		documentInFlight:  documentInFlight,
		batchDuration:     batchDuration,
		batchDocuments:    batchDocuments,
		lastBatchFinished: lastBatchFinished,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.documentInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(duration time.Duration, err error) {
	m.documentInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.documentTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveBatch(summary *domain.BatchSummary) {
	if summary == nil {
		return
	}
	m.batchDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	m.batchDocuments.WithLabelValues(m.service, "discovered").Set(float64(summary.Discovered))
	m.batchDocuments.WithLabelValues(m.service, "extracted").Set(float64(len(summary.Records)))
	m.batchDocuments.WithLabelValues(m.service, "failed").Set(float64(len(summary.Failures)))
	m.lastBatchFinished.Set(float64(summary.FinishedAt.Unix()))
}
