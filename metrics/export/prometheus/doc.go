// Package prometheus renders engine metrics in the Prometheus text format.
//
// [NewPrometheusExporter] wraps a [goSession.Engine] and exposes an
// [http.Handler]. Counters are named gosession_*_total; the latency
// histograms gosession_revalidate_latency_seconds and
// gosession_payment_confirm_latency_seconds appear only when latency
// histograms are enabled. Nothing is registered globally; callers mount the
// Handler themselves.
package prometheus
