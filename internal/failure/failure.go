// Package failure holds the outcome taxonomy shared by the engine, its flows
// and the service adapters.
package failure

import (
	"context"
	"errors"
	"net"
)

// Kind classifies why an operation did not succeed.
type Kind uint8

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	// KindAuthRejected means the service refused the credential.
	KindAuthRejected
	// KindTransient means the outcome is unknown or temporary; retrying may succeed.
	KindTransient
	// KindValidation means the request itself was refused (bad input, card declined).
	KindValidation
	// KindIntegration means a collaborator answered in an unexpected shape.
	KindIntegration
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthRejected:
		return "auth_rejected"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindIntegration:
		return "integration"
	default:
		return "unknown"
	}
}

// Classified is implemented by adapter errors that know their own Kind.
type Classified interface {
	FailureKind() Kind
}

// Messenger is implemented by adapter errors carrying a user-presentable message.
type Messenger interface {
	UserMessage() string
}

// Failure is the typed outcome returned for expected failures.
type Failure struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" && f.Err != nil {
		msg = f.Err.Error()
	}
	if f.Op == "" {
		return msg
	}
	return f.Op + ": " + msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// New builds a Failure from err, classifying it and picking the upstream
// message when one exists, fallback otherwise.
func New(op string, err error, fallback string) *Failure {
	return &Failure{
		Kind:    KindOf(err),
		Message: MessageOf(err, fallback),
		Op:      op,
		Err:     err,
	}
}

// KindOf classifies any error. Unrecognized errors are integration failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var f *Failure
	if errors.As(err, &f) && f.Kind != KindNone {
		return f.Kind
	}

	var c Classified
	if errors.As(err, &c) {
		return c.FailureKind()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	return KindIntegration
}

// MessageOf returns the most specific user-presentable message in err's chain.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}

	var m Messenger
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}

	return fallback
}
