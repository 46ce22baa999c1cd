package secondary

import (
	"context"
	"time"
)

// MetricsRecorder receives store and service telemetry.
type MetricsRecorder interface {
	// ObserveQuery counts one SQL round trip against table.
	ObserveQuery(table, op string)
	// Observe records the outcome and latency of a service operation.
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

// ObserveQuery implements MetricsRecorder.
func (NoopMetrics) ObserveQuery(string, string) {}

// Observe implements MetricsRecorder.
func (NoopMetrics) Observe(context.Context, string, bool, time.Duration) {}
