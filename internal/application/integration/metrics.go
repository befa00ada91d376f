package integration

import (
	"context"
	"time"
)

// SyncMetrics receives synchronization counters. The telemetry package
// provides the OpenTelemetry implementation.
type SyncMetrics interface {
	RecordWebhook(ctx context.Context, outcome string)
	RecordCooldownSkip(ctx context.Context)
	RecordPropagation(ctx context.Context, outcome string)
	RecordOutbound(ctx context.Context, operation, outcome string, duration time.Duration)
}

// Metric outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeCooldown = "cooldown"
)

type noopSyncMetrics struct{}

func (noopSyncMetrics) RecordWebhook(context.Context, string)     {}
func (noopSyncMetrics) RecordCooldownSkip(context.Context)        {}
func (noopSyncMetrics) RecordPropagation(context.Context, string) {}
func (noopSyncMetrics) RecordOutbound(context.Context, string, string, time.Duration) {
}
