package goSession

import (
	"errors"

	"github.com/Unicash-organization/goSession/internal/failure"
	"github.com/Unicash-organization/goSession/internal/flows"
)

var (
	// ErrNotAuthenticated is returned by operations that need a session token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEngineNotReady is returned when a nil or unbuilt engine is used.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidArgument is returned for empty tokens, users or identifiers.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFlowState is returned when a payment flow step is called out of order.
	ErrFlowState = errors.New("payment flow: step not allowed in current state")
	// ErrSecretSpent is returned when Confirm is called twice on one client secret.
	ErrSecretSpent = errors.New("payment flow: client secret already used")
	// ErrFlowCancelled is returned when Cancel overtook an in-flight step.
	ErrFlowCancelled = errors.New("payment flow: cancelled")
	// ErrProcessorUnavailable is returned when no payment processor was configured.
	ErrProcessorUnavailable = errors.New("payment processor not configured")
	// ErrMissingPaymentMethod is wrapped when a confirmation names no instrument.
	ErrMissingPaymentMethod = flows.ErrMissingPaymentMethod
)

// Kind classifies a failure.
type Kind = failure.Kind

const (
	KindNone         = failure.KindNone
	KindAuthRejected = failure.KindAuthRejected
	KindTransient    = failure.KindTransient
	KindValidation   = failure.KindValidation
	KindIntegration  = failure.KindIntegration
)

// Failure is the typed error returned for expected failures. Message is
// suitable for display.
type Failure = failure.Failure

// KindOf classifies any error returned by this module.
func KindOf(err error) Kind {
	return failure.KindOf(err)
}

// MessageOf returns the display message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	return failure.MessageOf(err, fallback)
}

func newFailure(op string, kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Op: op, Err: err}
}
