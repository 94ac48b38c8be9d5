package goSession

import (
	"io"
	"log/slog"

	"github.com/Unicash-organization/goSession/internal/audit"
)

// AuditEvent is one session or payment-flow occurrence.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
)

const (
	AuditLoginSuccess         = "login_success"
	AuditLoginFailure         = "login_failure"
	AuditRevalidateSuccess    = "revalidate_success"
	AuditRevalidateRejected   = "revalidate_rejected"
	AuditRevalidateTransient  = "revalidate_transient"
	AuditCredentialCorrupt    = "credential_corrupt"
	AuditSetAuth              = "set_auth"
	AuditLogout               = "logout"
	AuditPaymentSetupOpened   = "payment_setup_opened"
	AuditPaymentSetupFailed   = "payment_setup_failed"
	AuditPaymentConfirmed     = "payment_confirmed"
	AuditPaymentConfirmFailed = "payment_confirm_failed"
	AuditPaymentFinalized     = "payment_finalized"
	AuditPaymentFinalizeFail  = "payment_finalize_failed"
	AuditPaymentCancelled     = "payment_cancelled"
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink writes audit events as structured log records at level.
func NewSlogSink(logger *slog.Logger, level slog.Level) *SlogSink {
	return audit.NewSlogSink(logger, level)
}
