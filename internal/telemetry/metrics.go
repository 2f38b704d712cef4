package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/DianaSill/Direct-Debit-Processing-System"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Handoff metrics
	SubmissionsCreatedTotal  metric.Int64Counter
	SubmissionsRejectedTotal metric.Int64Counter

	// Verification callback metrics
	CallbacksTotal         metric.Int64Counter
	CallbackConflictsTotal metric.Int64Counter

	// Export metrics
	ExportRunsTotal     metric.Int64Counter
	ExportRecordsTotal  metric.Int64Counter
	ExportBytesTotal    metric.Int64Counter
	ExportRunDuration   metric.Float64Histogram
	ExportErrorsTotal   metric.Int64Counter
	ExportMarkConflicts metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SubmissionsCreatedTotal, _ = meter.Int64Counter(
		"ddps.submissions.created.total",
		metric.WithDescription("Total number of submissions created by the handoff builder"),
		metric.WithUnit("{submission}"),
	)

	m.SubmissionsRejectedTotal, _ = meter.Int64Counter(
		"ddps.submissions.rejected.total",
		metric.WithDescription("Total number of enrollment requests rejected by validation"),
		metric.WithUnit("{request}"),
	)

	m.CallbacksTotal, _ = meter.Int64Counter(
		"ddps.callbacks.total",
		metric.WithDescription("Total number of verification callbacks processed"),
		metric.WithUnit("{callback}"),
	)

	m.CallbackConflictsTotal, _ = meter.Int64Counter(
		"ddps.callbacks.conflicts.total",
		metric.WithDescription("Total number of callbacks rejected for conflicting with a terminal submission"),
		metric.WithUnit("{callback}"),
	)

	m.ExportRunsTotal, _ = meter.Int64Counter(
		"ddps.export.runs.total",
		metric.WithDescription("Total number of export runs"),
		metric.WithUnit("{run}"),
	)

	m.ExportRecordsTotal, _ = meter.Int64Counter(
		"ddps.export.records.total",
		metric.WithDescription("Total number of records written to export files"),
		metric.WithUnit("{record}"),
	)

	m.ExportBytesTotal, _ = meter.Int64Counter(
		"ddps.export.bytes.total",
		metric.WithDescription("Total bytes uploaded to export storage"),
		metric.WithUnit("By"),
	)

	m.ExportRunDuration, _ = meter.Float64Histogram(
		"ddps.export.run.duration",
		metric.WithDescription("Duration of export runs"),
		metric.WithUnit("ms"),
	)

	m.ExportErrorsTotal, _ = meter.Int64Counter(
		"ddps.export.errors.total",
		metric.WithDescription("Total number of failed export runs"),
		metric.WithUnit("{error}"),
	)

	m.ExportMarkConflicts, _ = meter.Int64Counter(
		"ddps.export.mark_conflicts.total",
		metric.WithDescription("Total number of submissions found already exported while marking"),
		metric.WithUnit("{submission}"),
	)

	return m
}
