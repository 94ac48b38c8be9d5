package accountapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Unicash-organization/goSession/internal/failure"
)

var (
	// ErrMalformedResponse marks a success status whose body could not be decoded.
	ErrMalformedResponse = errors.New("accountapi: malformed response")
	// ErrTransport marks a request that never produced an HTTP response.
	ErrTransport = errors.New("accountapi: transport failure")
)

// ServiceError describes a failed Account Service call.
type ServiceError struct {
	// Op is the client operation, e.g. "me" or "login".
	Op string
	// StatusCode is zero when no response was received.
	StatusCode int
	// Code is the machine-readable code from the error body, if any.
	Code string
	// Message is the human-readable message from the error body, if any.
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("accountapi: %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("accountapi: %s (%d): %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("accountapi: %s (%d): %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("accountapi: %s (%d)", e.Op, e.StatusCode)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// UserMessage returns the service's message.
func (e *ServiceError) UserMessage() string {
	return e.Message
}

// FailureKind classifies the error by status code.
func (e *ServiceError) FailureKind() failure.Kind {
	return ClassifyStatus(e.StatusCode)
}

// ClassifyStatus maps an HTTP status to a failure kind. Zero means no
// response was received.
func ClassifyStatus(status int) failure.Kind {
	switch {
	case status == 0:
		return failure.KindTransient
	case status >= 200 && status < 300:
		// Only reached for bodies that failed to decode.
		return failure.KindIntegration
	case status == http.StatusUnauthorized:
		return failure.KindAuthRejected
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return failure.KindTransient
	case status >= 500:
		return failure.KindTransient
	case status >= 400:
		return failure.KindValidation
	default:
		return failure.KindIntegration
	}
}

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
