package telemetry

import (
	"context"

	"github.com/giobyte8/imgvariants/internal/telemetry/metrics"
)

type Config struct {
	OtelEnabled               bool
	OtelCollectorGrpcEndpoint string
}

type TelemetrySvc struct {
	metrics metrics.MetricsSvc
}

func NewTelemetrySvc(ctx context.Context, cfg Config) (*TelemetrySvc, error) {
	var metricsSvc metrics.MetricsSvc

	if cfg.OtelEnabled {
		otelSvc, err := metrics.NewOtelMetricsSvc(
			ctx,
			cfg.OtelCollectorGrpcEndpoint,
		)
		if err != nil {
			return nil, err
		}
		metricsSvc = otelSvc
	} else {
		metricsSvc = metrics.NewDiscardMetricsSvc()
	}

	return &TelemetrySvc{
		metrics: metricsSvc,
	}, nil
}

// NewNoopTelemetrySvc returns telemetry that records nothing. Used by
// one-shot CLI runs and tests.
func NewNoopTelemetrySvc() *TelemetrySvc {
	return NewTelemetrySvcWith(metrics.NewDiscardMetricsSvc())
}

func NewTelemetrySvcWith(metricsSvc metrics.MetricsSvc) *TelemetrySvc {
	return &TelemetrySvc{metrics: metricsSvc}
}

func (t *TelemetrySvc) Metrics() metrics.MetricsSvc {
	return t.metrics
}

func (t *TelemetrySvc) Shutdown(ctx context.Context) error {
	return t.metrics.Shutdown(ctx)
}
