package flows

import (
	"context"
	"errors"

	"github.com/Unicash-organization/goSession/internal/failure"
	"github.com/Unicash-organization/goSession/processor"
	"github.com/google/uuid"
)

const (
	OpenFallbackMessage         = "Could not start payment setup"
	ConfirmFallbackMessage      = "Could not confirm payment method"
	MissingPaymentMethodMessage = "could not get payment method"
	FinalizeFallbackMessage     = "Could not save payment method"
)

// ErrMissingPaymentMethod is returned when a confirmation names no instrument.
var ErrMissingPaymentMethod = errors.New("setup result carries no payment method")

type SetupIntentService interface {
	CreateSetupIntent(ctx context.Context, token, idempotencyKey string) (string, error)
	SetDefaultPaymentMethod(ctx context.Context, token, paymentMethodID string) error
}

// PaymentDeps captures setup-intent handshake dependencies.
type PaymentDeps struct {
	Accounts          SetupIntentService
	Processor         processor.Processor
	NewIdempotencyKey func() string
}

type OpenSetupResult struct {
	ClientSecret   string
	IdempotencyKey string
}

// RunOpenSetup mints a fresh client secret. It never retries.
func RunOpenSetup(ctx context.Context, token string, deps PaymentDeps) (OpenSetupResult, error) {
	newKey := deps.NewIdempotencyKey
	if newKey == nil {
		newKey = uuid.NewString
	}
	key := newKey()

	secret, err := deps.Accounts.CreateSetupIntent(ctx, token, key)
	if err != nil {
		return OpenSetupResult{IdempotencyKey: key}, failure.New("open_setup", err, OpenFallbackMessage)
	}
	return OpenSetupResult{ClientSecret: secret, IdempotencyKey: key}, nil
}

// RunConfirmSetup hands the secret and instrument to the processor and
// returns the resulting payment method id.
func RunConfirmSetup(ctx context.Context, req processor.ConfirmRequest, deps PaymentDeps) (string, error) {
	if deps.Processor == nil {
		return "", &failure.Failure{Kind: failure.KindIntegration, Message: ConfirmFallbackMessage, Op: "confirm_setup", Err: errors.New("no processor configured")}
	}

	res, err := deps.Processor.ConfirmSetup(ctx, req)
	if err != nil {
		return "", failure.New("confirm_setup", err, ConfirmFallbackMessage)
	}
	if res == nil || res.PaymentMethod.ID == "" {
		return "", &failure.Failure{
			Kind:    failure.KindIntegration,
			Message: MissingPaymentMethodMessage,
			Op:      "confirm_setup",
			Err:     ErrMissingPaymentMethod,
		}
	}
	return res.PaymentMethod.ID, nil
}

// RunFinalizeSetup records paymentMethodID as the account's default.
func RunFinalizeSetup(ctx context.Context, token, paymentMethodID string, deps PaymentDeps) error {
	if err := deps.Accounts.SetDefaultPaymentMethod(ctx, token, paymentMethodID); err != nil {
		return failure.New("finalize_setup", err, FinalizeFallbackMessage)
	}
	return nil
}
