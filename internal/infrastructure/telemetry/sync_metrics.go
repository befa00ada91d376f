package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the sync instruments
const MeterName = "stocksync"

var (
	attrStatus    = attribute.Key("status")
	attrResult    = attribute.Key("result")
	attrOperation = attribute.Key("operation")
)

// outboundBuckets covers connector round trips from fast LAN calls to the gateway timeout
var outboundBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// SyncMetrics records webhook, propagation and outbound call counters
type SyncMetrics struct {
	webhooks         metric.Int64Counter
	propagations     metric.Int64Counter
	cooldownSkips    metric.Int64Counter
	outboundCalls    metric.Int64Counter
	outboundDuration metric.Float64Histogram
}

// NewSyncMetrics creates the sync instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	m := &SyncMetrics{}
	var err error

	if m.webhooks, err = meter.Int64Counter("stocksync_webhooks_total",
		metric.WithDescription("Inbound stock webhooks by processing status"),
		metric.WithUnit("{webhook}"),
	); err != nil {
		return nil, err
	}
	if m.propagations, err = meter.Int64Counter("stocksync_propagations_total",
		metric.WithDescription("Per-target stock propagation attempts by result"),
		metric.WithUnit("{update}"),
	); err != nil {
		return nil, err
	}
	if m.cooldownSkips, err = meter.Int64Counter("stocksync_cooldown_skips_total",
		metric.WithDescription("Webhooks dropped because the product was still in cooldown"),
		metric.WithUnit("{webhook}"),
	); err != nil {
		return nil, err
	}
	if m.outboundCalls, err = meter.Int64Counter("stocksync_outbound_calls_total",
		metric.WithDescription("Calls to store connectors by operation and result"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.outboundDuration, err = meter.Float64Histogram("stocksync_outbound_call_duration_seconds",
		metric.WithDescription("Store connector call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(outboundBuckets...),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SyncMetrics) RecordWebhook(ctx context.Context, outcome string) {
	m.webhooks.Add(ctx, 1, metric.WithAttributes(attrStatus.String(outcome)))
}

func (m *SyncMetrics) RecordCooldownSkip(ctx context.Context) {
	m.cooldownSkips.Add(ctx, 1)
}

func (m *SyncMetrics) RecordPropagation(ctx context.Context, outcome string) {
	m.propagations.Add(ctx, 1, metric.WithAttributes(attrResult.String(outcome)))
}

func (m *SyncMetrics) RecordOutbound(ctx context.Context, operation, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attrOperation.String(operation), attrResult.String(outcome))
	m.outboundCalls.Add(ctx, 1, attrs)
	m.outboundDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrOperation.String(operation)))
}
