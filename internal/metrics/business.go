package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records seed lifecycle operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation. domain is "otp" or "rewrap", operation names the
	// use-case method (e.g. "seed_verify") and status is "success", "error" or, for
	// verifications, the verification result.
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records how long an operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordItems adds count seeds processed with the given outcome, e.g. the rewrapped or
	// unreadable totals of a key rotation. Non-positive counts are ignored.
	RecordItems(ctx context.Context, domain, outcome string, count int)
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	itemCounter      metric.Int64Counter
}

// NewBusinessMetrics creates the instruments under namespace on meterProvider.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of seed lifecycle operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of seed lifecycle operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	itemCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_seeds_processed_total", namespace),
		metric.WithDescription("Total number of stored seeds processed by batch operations"),
		metric.WithUnit("{seed}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		itemCounter:      itemCounter,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1, metric.WithAttributes(operationAttributes(domain, operation, status)...))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(operationAttributes(domain, operation, status)...),
	)
}

func (b *businessMetrics) RecordItems(ctx context.Context, domain, outcome string, count int) {
	if count <= 0 {
		return
	}
	b.itemCounter.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("outcome", outcome),
	))
}

func operationAttributes(domain, operation, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
}

// NoOpBusinessMetrics discards every measurement. Used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

// RecordItems does nothing.
func (n *NoOpBusinessMetrics) RecordItems(ctx context.Context, domain, outcome string, count int) {}
