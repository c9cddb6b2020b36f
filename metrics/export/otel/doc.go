// Package otel publishes guard counters and the evaluate latency histogram
// through an OpenTelemetry meter. One callback reads
// [adminguard.Engine.MetricsSnapshot] per collection; callers own the
// MeterProvider.
package otel
