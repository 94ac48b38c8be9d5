package goSession

import "github.com/Unicash-organization/goSession/internal/metrics"

// MetricID names one engine counter or histogram.
type MetricID = metrics.ID

const (
	MetricLoginSuccess           = metrics.LoginSuccess
	MetricLoginFailure           = metrics.LoginFailure
	MetricRevalidateSuccess      = metrics.RevalidateSuccess
	MetricRevalidateRejected     = metrics.RevalidateRejected
	MetricRevalidateTransient    = metrics.RevalidateTransient
	MetricRevalidateDiscarded    = metrics.RevalidateDiscarded
	MetricLogout                 = metrics.Logout
	MetricSetAuth                = metrics.SetAuth
	MetricCredentialCorrupt      = metrics.CredentialCorrupt
	MetricStorageFailure         = metrics.StorageFailure
	MetricPaymentSetupOpened     = metrics.PaymentSetupOpened
	MetricPaymentSetupOpenFailed = metrics.PaymentSetupOpenFailed
	MetricPaymentConfirmSuccess  = metrics.PaymentConfirmSuccess
	MetricPaymentConfirmFailure  = metrics.PaymentConfirmFailure
	MetricPaymentFinalizeSuccess = metrics.PaymentFinalizeSuccess
	MetricPaymentFinalizeFailure = metrics.PaymentFinalizeFailure
	MetricPaymentFlowCancelled   = metrics.PaymentFlowCancelled

	// Histograms, populated only with latency histograms enabled.
	MetricRevalidateLatency     = metrics.RevalidateLatency
	MetricPaymentConfirmLatency = metrics.PaymentConfirmLatency
)

// MetricsSnapshot is a point-in-time copy of engine metrics.
type MetricsSnapshot = metrics.Snapshot

// MetricBucketCount is the number of buckets in each latency histogram.
const MetricBucketCount = metrics.BucketCount

// IsHistogramMetric reports whether id is a latency histogram.
func IsHistogramMetric(id MetricID) bool {
	return metrics.IsHistogram(id)
}
