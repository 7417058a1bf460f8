package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the import and migration counters.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importGroups    *prometheus.CounterVec
	importRows      prometheus.Counter
	importDuration  prometheus.Histogram
	legacyRecords   *prometheus.CounterVec
	legacyBatch     prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importGroups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marksheet_import_groups_total",
		Help: "Student groups processed by marksheet imports",
	}, []string{"outcome"})

	importRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marksheet_import_rows_total",
		Help: "Rows received by marksheet imports",
	})

	importDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marksheet_import_duration_seconds",
		Help:    "Wall time of a marksheet import",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	legacyRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legacy_migration_records_total",
		Help: "Legacy admissions processed by the migration",
	}, []string{"outcome"})

	legacyBatch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "legacy_migration_batch_seconds",
		Help:    "Duration of one legacy migration batch",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, importGroups, importRows, importDuration, legacyRecords, legacyBatch, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importGroups:    importGroups,
		importRows:      importRows,
		importDuration:  importDuration,
		legacyRecords:   legacyRecords,
		legacyBatch:     legacyBatch,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordImportGroup counts one student group by outcome.
func (m *MetricsService) RecordImportGroup(outcome string) {
	if m == nil {
		return
	}
	m.importGroups.WithLabelValues(outcome).Inc()
}

// ObserveImport records the size and duration of a finished import.
func (m *MetricsService) ObserveImport(rows int, duration time.Duration) {
	if m == nil {
		return
	}
	m.importRows.Add(float64(rows))
	m.importDuration.Observe(duration.Seconds())
}

// RecordLegacyRecord counts one legacy admission by outcome.
func (m *MetricsService) RecordLegacyRecord(outcome string) {
	if m == nil {
		return
	}
	m.legacyRecords.WithLabelValues(outcome).Inc()
}

// ObserveLegacyBatch records the duration of one migration batch.
func (m *MetricsService) ObserveLegacyBatch(duration time.Duration) {
	if m == nil {
		return
	}
	m.legacyBatch.Observe(duration.Seconds())
}
