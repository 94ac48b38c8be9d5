package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Processor confirms setup intents.
type Processor interface {
	ConfirmSetup(ctx context.Context, req ConfirmRequest) (*SetupResult, error)
}

// ConfirmRequest carries the single-use secret and the instrument.
type ConfirmRequest struct {
	ClientSecret string
	Card         Card
	ReturnURL    string
}

// SetupResult is the processor's view of a confirmed setup intent.
type SetupResult struct {
	ID            string           `json:"id"`
	Status        string           `json:"status"`
	PaymentMethod PaymentMethodRef `json:"payment_method"`
	LastError     *Error           `json:"last_setup_error,omitempty"`
}

// CardDetails is the non-sensitive card summary a processor returns.
type CardDetails struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// PaymentMethodRef is either a bare id or an expanded object with an id.
type PaymentMethodRef struct {
	ID       string
	Expanded bool
	Card     *CardDetails
}

// UnmarshalJSON accepts null, a string id, or an object carrying "id".
func (r *PaymentMethodRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = PaymentMethodRef{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPaymentMethod, err)
		}
		r.ID = id
		return nil
	case data[0] == '{':
		var obj struct {
			ID   string       `json:"id"`
			Card *CardDetails `json:"card"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPaymentMethod, err)
		}
		r.ID = obj.ID
		r.Expanded = true
		r.Card = obj.Card
		return nil
	default:
		return fmt.Errorf("%w: unexpected %q", ErrMalformedPaymentMethod, string(data[:1]))
	}
}

// MarshalJSON writes the id form, or the object form when expanded.
func (r PaymentMethodRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	if !r.Expanded {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID   string       `json:"id"`
		Card *CardDetails `json:"card,omitempty"`
	}{r.ID, r.Card})
}

// IntentIDFromSecret returns the setup intent id embedded in a client secret:
// "seti_123_secret_abc" names "seti_123".
func IntentIDFromSecret(secret string) (string, error) {
	i := strings.Index(secret, "_secret_")
	if i <= 0 || i+len("_secret_") == len(secret) {
		return "", ErrInvalidClientSecret
	}
	return secret[:i], nil
}
