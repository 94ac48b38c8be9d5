// Package metrics provides lock-free counters and latency histograms for the
// session engine.
//
// Counters live in cache-line-padded uint64 slots incremented with
// [sync/atomic.AddUint64]. Histograms use 8 fixed buckets (≤5ms … +Inf) and
// track revalidation and payment-confirmation latency. The write path does
// not allocate.
//
// Export (Prometheus text, OpenTelemetry) lives in metrics/export and reads
// [Snapshot] values. This package performs no I/O.
package metrics
