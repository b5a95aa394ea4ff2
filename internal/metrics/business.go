// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes the Prometheus metrics of the naucse tooling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// Validation metrics
	documentsValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_documents_validated_total",
		Help: "Documents validated by outcome",
	}, []string{"source", "result"}) // source=cli|api|watch, result=valid|invalid|malformed

	validationIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_validation_issues_total",
		Help: "Validation issues found by code and severity",
	}, []string{"code", "severity"})

	validationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "naucse_validation_duration_seconds",
		Help:    "Time spent parsing and validating a document",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"source"})

	// Live reload
	documentReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_document_reloads_total",
		Help: "Document reloads triggered by file changes",
	}, []string{"result"}) // result=success|failure

	lastReloadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naucse_document_last_reload_timestamp_seconds",
		Help: "Unix time of the last successful document reload",
	})

	// Report cache
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_report_cache_requests_total",
		Help: "Report cache lookups by backend and result",
	}, []string{"backend", "result"}) // result=hit|miss|error

	// Lesson catalog
	catalogLessons = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "naucse_catalog_lessons",
		Help: "Lessons known to the catalog (last index or scan)",
	}, []string{"backend"})

	catalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_catalog_lookups_total",
		Help: "Lesson lookups by backend and result",
	}, []string{"backend", "result"}) // result=found|missing|error

	// Archive
	snapshotsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_snapshots_published_total",
		Help: "Publish attempts by outcome",
	}, []string{"result"}) // result=created|unchanged|rejected|error

	// Exports and push
	calendarExports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naucse_calendar_exports_total",
		Help: "iCalendar exports by outcome",
	}, []string{"result"})

	calendarEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naucse_calendar_events",
		Help: "Events written in the last iCalendar export",
	})

	websocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naucse_websocket_clients",
		Help: "Connected report push clients",
	})

	// Operational metrics
	configValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "naucse_config_validation_errors_total",
		Help: "Total number of configuration validation errors",
	})
)

// RecordValidation records one validated document.
func RecordValidation(source, result string, seconds float64) {
	documentsValidated.WithLabelValues(source, result).Inc()
	validationDuration.WithLabelValues(source).Observe(seconds)
}

func IncValidationIssue(code, severity string) { validationIssues.WithLabelValues(code, severity).Inc() }

// RecordReload records a reload attempt; unixTime is only used on success.
func RecordReload(ok bool, unixTime float64) {
	if !ok {
		documentReloads.WithLabelValues("failure").Inc()
		return
	}
	documentReloads.WithLabelValues("success").Inc()
	lastReloadTimestamp.Set(unixTime)
}

func IncCacheRequest(backend, result string) { cacheRequests.WithLabelValues(backend, result).Inc() }

func RecordCatalogSize(backend string, n int) { catalogLessons.WithLabelValues(backend).Set(float64(n)) }

func IncCatalogLookup(backend, result string) { catalogLookups.WithLabelValues(backend, result).Inc() }

func IncSnapshotPublish(result string) { snapshotsPublished.WithLabelValues(result).Inc() }

// RecordCalendarExport records an export; events is ignored on failure.
func RecordCalendarExport(events int, err error) {
	if err != nil {
		calendarExports.WithLabelValues("failure").Inc()
		return
	}
	calendarExports.WithLabelValues("success").Inc()
	calendarEvents.Set(float64(events))
}

func IncWebsocketClients() { websocketClients.Inc() }
func DecWebsocketClients() { websocketClients.Dec() }

// GetWebsocketClients returns the current number of push clients.
func GetWebsocketClients() float64 {
	var m dto.Metric
	if err := websocketClients.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func IncConfigValidationError() { configValidationErrors.Inc() }
