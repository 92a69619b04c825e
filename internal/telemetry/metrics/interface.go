package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	VariantGenRequestReceived MetricName = "variant.gen_request.received"
	VariantDelRequestReceived MetricName = "variant.del_request.received"
	VariantCreated            MetricName = "variant.created"
	VariantRemoved            MetricName = "variant.removed"
)

// MetricsSvc counts variant requests and the files they produce.
// Implementations must be safe for concurrent use, since every variant
// of a source is processed in its own goroutine.
type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}

// DiscardMetricsSvc drops every variant counter. Used when OTEL is
// disabled and by the oneshot commands.
type DiscardMetricsSvc struct{}

func NewDiscardMetricsSvc() *DiscardMetricsSvc {
	return &DiscardMetricsSvc{}
}

func (DiscardMetricsSvc) Increment(MetricName, map[string]string) {}

func (DiscardMetricsSvc) Shutdown(context.Context) error {
	return nil
}
