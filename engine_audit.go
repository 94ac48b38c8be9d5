package goSession

import (
	"context"
	"errors"

	"github.com/Unicash-organization/goSession/accountapi"
	"github.com/Unicash-organization/goSession/credential"
	"github.com/Unicash-organization/goSession/internal/reqctx"
	"github.com/Unicash-organization/goSession/processor"
	"github.com/Unicash-organization/goSession/storage"
)

// AuditErrorCode is the machine-readable reason attached to a failed audit
// event. It never carries raw upstream text.
type AuditErrorCode string

const (
	auditErrNotAuthenticated     AuditErrorCode = "not_authenticated"
	auditErrFlowState            AuditErrorCode = "flow_state"
	auditErrSecretSpent          AuditErrorCode = "secret_spent"
	auditErrCancelled            AuditErrorCode = "cancelled"
	auditErrProcessorUnavailable AuditErrorCode = "processor_unavailable"
	auditErrMissingPaymentMethod AuditErrorCode = "missing_payment_method"
	auditErrCorruptCredential    AuditErrorCode = "corrupt_credential"
	auditErrStorageUnavailable   AuditErrorCode = "storage_unavailable"
	auditErrUnauthorized         AuditErrorCode = "unauthorized"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: reqctx.RequestID(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Kind = KindOf(err).String()
		event.Error = string(auditErrorCode(err))
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrFlowState):
		return auditErrFlowState
	case errors.Is(err, ErrSecretSpent):
		return auditErrSecretSpent
	case errors.Is(err, ErrFlowCancelled):
		return auditErrCancelled
	case errors.Is(err, ErrProcessorUnavailable):
		return auditErrProcessorUnavailable
	case errors.Is(err, ErrMissingPaymentMethod):
		return auditErrMissingPaymentMethod
	case errors.Is(err, credential.ErrCorrupt):
		return auditErrCorruptCredential
	case errors.Is(err, storage.ErrUnavailable):
		return auditErrStorageUnavailable
	}

	var pe *processor.Error
	if errors.As(err, &pe) {
		switch {
		case pe.DeclineCode != "":
			return AuditErrorCode(pe.DeclineCode)
		case pe.Code != "":
			return AuditErrorCode(pe.Code)
		case pe.Type != "":
			return AuditErrorCode(pe.Type)
		}
	}

	var se *accountapi.ServiceError
	if errors.As(err, &se) {
		if se.Code != "" {
			return AuditErrorCode(se.Code)
		}
		if accountapi.IsUnauthorized(err) {
			return auditErrUnauthorized
		}
	}

	return AuditErrorCode(KindOf(err).String())
}
