package processor

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Unicash-organization/goSession/internal/failure"
)

// Processor error types.
const (
	TypeCardError           = "card_error"
	TypeValidationError     = "validation_error"
	TypeInvalidRequestError = "invalid_request_error"
	TypeAPIError            = "api_error"
)

var (
	// ErrInvalidClientSecret is returned for a secret that names no setup intent.
	ErrInvalidClientSecret = errors.New("processor: invalid client secret")
	// ErrMalformedPaymentMethod is returned when payment_method has an unknown shape.
	ErrMalformedPaymentMethod = errors.New("processor: malformed payment_method")
	// ErrTransport marks a request that never produced a response.
	ErrTransport = errors.New("processor: transport failure")
)

// Error is a failure reported by, or on behalf of, the processor.
type Error struct {
	Type        string `json:"type"`
	Code        string `json:"code,omitempty"`
	DeclineCode string `json:"decline_code,omitempty"`
	Message     string `json:"message,omitempty"`
	Param       string `json:"param,omitempty"`
	StatusCode  int    `json:"-"`
	Err         error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("processor: %s: %s", e.Type, e.Message)
	case e.Code != "":
		return fmt.Sprintf("processor: %s: %s", e.Type, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("processor: %v", e.Err)
	default:
		return fmt.Sprintf("processor: %s (%d)", e.Type, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the processor's message, or its code when no message was sent.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.DeclineCode != "" {
		return e.DeclineCode
	}
	return e.Code
}

// FailureKind classifies the error.
func (e *Error) FailureKind() failure.Kind {
	switch e.Type {
	case TypeCardError, TypeValidationError, TypeInvalidRequestError:
		return failure.KindValidation
	}
	switch {
	case errors.Is(e.Err, ErrTransport):
		return failure.KindTransient
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return failure.KindTransient
	default:
		return failure.KindIntegration
	}
}
