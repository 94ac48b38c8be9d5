package internaldefs

import (
	goSession "github.com/Unicash-organization/goSession"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed logins."},
	{ID: goSession.MetricRevalidateSuccess, Name: "gosession_revalidate_success_total", Help: "Revalidations accepted by the account service."},
	{ID: goSession.MetricRevalidateRejected, Name: "gosession_revalidate_rejected_total", Help: "Revalidations that ended the session."},
	{ID: goSession.MetricRevalidateTransient, Name: "gosession_revalidate_transient_total", Help: "Revalidations that failed without ending the session."},
	{ID: goSession.MetricRevalidateDiscarded, Name: "gosession_revalidate_discarded_total", Help: "Revalidation results dropped because the session changed in flight."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricSetAuth, Name: "gosession_set_auth_total", Help: "Sessions adopted without a login call."},
	{ID: goSession.MetricCredentialCorrupt, Name: "gosession_credential_corrupt_total", Help: "Persisted session records that could not be decoded."},
	{ID: goSession.MetricStorageFailure, Name: "gosession_storage_failure_total", Help: "Durable storage operations that failed."},
	{ID: goSession.MetricPaymentSetupOpened, Name: "gosession_payment_setup_opened_total", Help: "Client secrets minted."},
	{ID: goSession.MetricPaymentSetupOpenFailed, Name: "gosession_payment_setup_open_failed_total", Help: "Client secret requests that failed."},
	{ID: goSession.MetricPaymentConfirmSuccess, Name: "gosession_payment_confirm_success_total", Help: "Instruments confirmed by the processor."},
	{ID: goSession.MetricPaymentConfirmFailure, Name: "gosession_payment_confirm_failure_total", Help: "Processor confirmations that failed."},
	{ID: goSession.MetricPaymentFinalizeSuccess, Name: "gosession_payment_finalize_success_total", Help: "Instruments saved as the account default."},
	{ID: goSession.MetricPaymentFinalizeFailure, Name: "gosession_payment_finalize_failure_total", Help: "Default instrument updates that failed."},
	{ID: goSession.MetricPaymentFlowCancelled, Name: "gosession_payment_flow_cancelled_total", Help: "Payment flows cancelled by the host."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRevalidateLatency, Name: "gosession_revalidate_latency_seconds", Help: "Account service revalidation latency."},
	{ID: goSession.MetricPaymentConfirmLatency, Name: "gosession_payment_confirm_latency_seconds", Help: "Processor confirmation latency."},
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// SessionAuthenticatedName is the gauge reporting 1 while a validated
// session is held.
const SessionAuthenticatedName = "gosession_session_authenticated"

// HistogramBounds are the upper bounds, in seconds, of the engine's buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds for metric names that cannot
// carry labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine's bucket count.
func NormalizeBuckets(raw []uint64) [goSession.MetricBucketCount]uint64 {
	var out [goSession.MetricBucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to the running totals
// Prometheus expects.
func CumulativeBuckets(raw [goSession.MetricBucketCount]uint64) [goSession.MetricBucketCount]uint64 {
	var out [goSession.MetricBucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
