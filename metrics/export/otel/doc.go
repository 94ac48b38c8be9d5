// Package otel publishes engine metrics through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and, per latency histogram, a bucket gauge carrying an "le" attribute plus
// a count gauge. A single callback reads [goSession.Engine.MetricsSnapshot]
// on each collection cycle. The caller owns the MeterProvider.
package otel
