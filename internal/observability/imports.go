package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const importScope = "github.com/Additional-Code/ordenes/observability/imports"

// ImportMetrics counts spreadsheet imports, the rows they wrote and how long
// they took. Outcome is either "success" or "failure".
type ImportMetrics struct {
	runs     metric.Int64Counter
	rows     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewImportMetrics registers the import instruments on meter.
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	runs, err := meter.Int64Counter("orders.import.runs",
		metric.WithDescription("Spreadsheet import attempts by outcome"))
	if err != nil {
		return nil, err
	}
	rows, err := meter.Int64Counter("orders.import.rows",
		metric.WithDescription("Orders written by successful imports"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("orders.import.duration",
		metric.WithDescription("Spreadsheet import wall time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &ImportMetrics{runs: runs, rows: rows, duration: duration}, nil
}

// DiscardImportMetrics returns instruments that record nothing.
func DiscardImportMetrics() *ImportMetrics {
	m, _ := NewImportMetrics(noop.NewMeterProvider().Meter(importScope))
	return m
}

// RecordImport records one import attempt. Rows only count on success.
func (m *ImportMetrics) RecordImport(ctx context.Context, err error, rows int, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, took.Seconds(), attrs)
	if err == nil {
		m.rows.Add(ctx, int64(rows))
	}
}
