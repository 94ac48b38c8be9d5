package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Unicash-organization/goSession/internal/flows"
	"github.com/Unicash-organization/goSession/internal/metrics"
	"github.com/Unicash-organization/goSession/internal/reqctx"
	"github.com/Unicash-organization/goSession/processor"
)

const sessionEndedMessage = "Your session ended. Sign in and try again."

// FlowState is the position of a PaymentFlow in the setup handshake.
type FlowState uint8

const (
	FlowIdle FlowState = iota
	FlowRequestingSecret
	FlowAwaitingConfirmation
	FlowConfirming
	FlowSucceeded
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowRequestingSecret:
		return "requesting_secret"
	case FlowAwaitingConfirmation:
		return "awaiting_confirmation"
	case FlowConfirming:
		return "confirming"
	case FlowSucceeded:
		return "succeeded"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlowOption configures a PaymentFlow.
type FlowOption func(*PaymentFlow)

// WithReturnURL overrides Config.Payment.ReturnURL for one flow.
func WithReturnURL(u string) FlowOption {
	return func(f *PaymentFlow) { f.returnURL = u }
}

// WithOnComplete registers a callback run after a successful Finalize with
// the saved payment method id.
func WithOnComplete(fn func(ctx context.Context, paymentMethodID string)) FlowOption {
	return func(f *PaymentFlow) { f.onComplete = fn }
}

// WithRefreshOnComplete overrides Config.Payment.RefreshOnComplete.
func WithRefreshOnComplete(enabled bool) FlowOption {
	return func(f *PaymentFlow) { f.refreshOnComplete = enabled }
}

// PaymentFlow registers a reusable payment instrument against the account:
// Open mints a client secret, Confirm hands it with the instrument to the
// processor, Finalize records the resulting instrument as the default.
//
// A client secret is confirmed at most once. After a failure, Open starts
// over with a fresh secret. Cancel discards the flow and any in-flight
// result.
//
// A flow belongs to the session that opened it. Once that session ends, by
// logout, rejection or a new login, the flow fails with ErrNotAuthenticated
// and the secret is never confirmed or finalized under another session.
type PaymentFlow struct {
	engine            *Engine
	returnURL         string
	onComplete        func(ctx context.Context, paymentMethodID string)
	refreshOnComplete bool

	mu              sync.Mutex
	state           FlowState
	generation      uint64
	busy            bool
	sessionToken    string
	secret          string
	secretSpent     bool
	idempotencyKey  string
	paymentMethodID string
	failure         *Failure
}

// NewPaymentFlow returns an idle flow bound to the engine's session.
func (e *Engine) NewPaymentFlow(opts ...FlowOption) *PaymentFlow {
	f := &PaymentFlow{engine: e}
	if e != nil {
		f.returnURL = e.config.Payment.ReturnURL
		f.refreshOnComplete = e.config.Payment.RefreshOnComplete
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// State returns the flow's current state.
func (f *PaymentFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Failure returns the failure that moved the flow to FlowFailed, or nil.
func (f *PaymentFlow) Failure() *Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// PaymentMethodID returns the instrument id produced by Confirm, or "".
func (f *PaymentFlow) PaymentMethodID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paymentMethodID
}

// ClientSecret returns the secret the host hands to the processor's UI
// element. It is empty before Open succeeds and after it has been spent.
func (f *PaymentFlow) ClientSecret() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.secretSpent {
		return ""
	}
	return f.secret
}

/*
====================================
OPEN
====================================
*/

// Open mints a fresh client secret. It may be called from any state that is
// not in flight and always discards a previous secret. It never retries.
func (f *PaymentFlow) Open(ctx context.Context) error {
	e := f.engine
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	if e.processor == nil {
		return ErrProcessorUnavailable
	}
	token := e.sessionToken()
	if token == "" {
		return ErrNotAuthenticated
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return fmt.Errorf("%w: open while %s", ErrFlowState, f.state)
	}
	f.generation++
	gen := f.generation
	f.busy = true
	f.state = FlowRequestingSecret
	f.sessionToken = token
	f.secret, f.secretSpent, f.idempotencyKey = "", false, ""
	f.paymentMethodID = ""
	f.failure = nil
	f.mu.Unlock()

	res, err := e.flows.OpenSetup(ctx, token)
	if err == nil && res.ClientSecret == "" {
		err = newFailure("open_setup", KindIntegration, flows.OpenFallbackMessage, errors.New("setup intent response carries no client secret"))
	}
	if err == nil && e.sessionToken() != token {
		err = sessionEnded("open_setup")
	}

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.busy = false
	f.idempotencyKey = res.IdempotencyKey
	if err != nil {
		fail := asFailure("open_setup", err, flows.OpenFallbackMessage)
		f.state = FlowFailed
		f.failure = fail
		f.mu.Unlock()

		e.metricInc(metrics.PaymentSetupOpenFailed)
		e.emitAudit(ctx, AuditPaymentSetupFailed, false, e.currentUserID(), fail, nil)
		return fail
	}
	f.secret = res.ClientSecret
	f.state = FlowAwaitingConfirmation
	f.mu.Unlock()

	e.metricInc(metrics.PaymentSetupOpened)
	e.emitAudit(ctx, AuditPaymentSetupOpened, true, e.currentUserID(), nil, func() map[string]string {
		return map[string]string{"idempotency_key": res.IdempotencyKey}
	})
	return nil
}

/*
====================================
CONFIRM
====================================
*/

// Confirm spends the client secret on card and returns the processor's
// instrument id. A card that fails local validation is rejected before the
// secret is spent, and the flow stays FlowAwaitingConfirmation. Any other
// failure leaves the flow FlowFailed, and only Open can follow.
func (f *PaymentFlow) Confirm(ctx context.Context, card processor.Card) (string, error) {
	e := f.engine
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	f.mu.Lock()
	if f.secretSpent {
		f.mu.Unlock()
		return "", ErrSecretSpent
	}
	if f.busy || f.state != FlowAwaitingConfirmation {
		state := f.state
		f.mu.Unlock()
		return "", fmt.Errorf("%w: confirm while %s", ErrFlowState, state)
	}
	if e.sessionToken() != f.sessionToken {
		fail := f.failLocked(sessionEnded("confirm_setup"))
		f.mu.Unlock()
		e.metricInc(metrics.PaymentConfirmFailure)
		e.emitAudit(ctx, AuditPaymentConfirmFailed, false, "", fail, nil)
		return "", fail
	}
	if err := card.Validate(e.now()); err != nil {
		fail := asFailure("confirm_setup", err, flows.ConfirmFallbackMessage)
		f.failure = fail
		f.mu.Unlock()
		return "", fail
	}
	gen := f.generation
	f.busy = true
	f.secretSpent = true
	f.state = FlowConfirming
	secret := f.secret
	returnURL := f.returnURL
	f.mu.Unlock()

	start := e.now()
	id, err := e.flows.ConfirmSetup(ctx, processor.ConfirmRequest{
		ClientSecret: secret,
		Card:         card,
		ReturnURL:    returnURL,
	})
	e.metricObserve(metrics.PaymentConfirmLatency, e.now().Sub(start))

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return "", ErrFlowCancelled
	}
	f.busy = false
	if err == nil && e.sessionToken() != f.sessionToken {
		err = sessionEnded("confirm_setup")
	}
	if err != nil {
		fail := asFailure("confirm_setup", err, flows.ConfirmFallbackMessage)
		f.state = FlowFailed
		f.failure = fail
		f.mu.Unlock()

		e.metricInc(metrics.PaymentConfirmFailure)
		e.logger.InfoContext(ctx, "payment confirmation failed", "kind", fail.Kind.String(), "card", card)
		e.emitAudit(ctx, AuditPaymentConfirmFailed, false, e.currentUserID(), fail, nil)
		return "", fail
	}
	f.paymentMethodID = id
	f.failure = nil
	f.mu.Unlock()

	e.metricInc(metrics.PaymentConfirmSuccess)
	e.emitAudit(ctx, AuditPaymentConfirmed, true, e.currentUserID(), nil, nil)
	return id, nil
}

/*
====================================
FINALIZE
====================================
*/

// Finalize records paymentMethodID as the account's default instrument. The
// id must be the one returned by this flow's Confirm.
func (f *PaymentFlow) Finalize(ctx context.Context, paymentMethodID string) error {
	e := f.engine
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	f.mu.Lock()
	if f.busy || f.state != FlowConfirming || f.paymentMethodID == "" {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("%w: finalize while %s", ErrFlowState, state)
	}
	if paymentMethodID != f.paymentMethodID {
		f.mu.Unlock()
		return fmt.Errorf("%w: payment method %q was not confirmed by this flow", ErrInvalidArgument, paymentMethodID)
	}
	token := f.sessionToken
	if e.sessionToken() != token {
		fail := f.failLocked(sessionEnded("finalize_setup"))
		f.mu.Unlock()
		e.metricInc(metrics.PaymentFinalizeFailure)
		e.emitAudit(ctx, AuditPaymentFinalizeFail, false, "", fail, nil)
		return fail
	}
	gen := f.generation
	f.busy = true
	f.mu.Unlock()

	err := e.flows.FinalizeSetup(ctx, token, paymentMethodID)
	if err == nil && e.sessionToken() != token {
		err = sessionEnded("finalize_setup")
	}

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return ErrFlowCancelled
	}
	f.busy = false
	if err != nil {
		fail := asFailure("finalize_setup", err, flows.FinalizeFallbackMessage)
		f.state = FlowFailed
		f.failure = fail
		f.mu.Unlock()

		e.metricInc(metrics.PaymentFinalizeFailure)
		e.emitAudit(ctx, AuditPaymentFinalizeFail, false, e.currentUserID(), fail, nil)
		return fail
	}
	f.state = FlowSucceeded
	onComplete := f.onComplete
	refresh := f.refreshOnComplete
	f.mu.Unlock()

	e.metricInc(metrics.PaymentFinalizeSuccess)
	e.emitAudit(ctx, AuditPaymentFinalized, true, e.currentUserID(), nil, nil)

	if onComplete != nil {
		onComplete(ctx, paymentMethodID)
	}
	if refresh {
		if err := e.Refresh(ctx); err != nil {
			e.logger.WarnContext(ctx, "session refresh after payment setup failed", "error", err)
		}
	}
	return nil
}

// Submit confirms card and finalizes the resulting instrument.
func (f *PaymentFlow) Submit(ctx context.Context, card processor.Card) error {
	id, err := f.Confirm(ctx, card)
	if err != nil {
		return err
	}
	return f.Finalize(ctx, id)
}

// Cancel discards all flow state without a network call. A step in flight
// returns ErrFlowCancelled and leaves the flow untouched.
func (f *PaymentFlow) Cancel() {
	f.mu.Lock()
	wasIdle := f.state == FlowIdle && !f.busy
	f.generation++
	f.busy = false
	f.state = FlowIdle
	f.sessionToken = ""
	f.secret, f.secretSpent, f.idempotencyKey = "", false, ""
	f.paymentMethodID = ""
	f.failure = nil
	f.mu.Unlock()

	if e := f.engine; e != nil && !wasIdle {
		e.metricInc(metrics.PaymentFlowCancelled)
		e.emitAudit(context.Background(), AuditPaymentCancelled, true, e.currentUserID(), nil, nil)
	}
}

// failLocked moves the flow to FlowFailed. The caller holds f.mu.
func (f *PaymentFlow) failLocked(fail *Failure) *Failure {
	f.state = FlowFailed
	f.failure = fail
	f.secret, f.secretSpent = "", true
	f.paymentMethodID = ""
	return fail
}

func sessionEnded(op string) *Failure {
	return newFailure(op, KindAuthRejected, sessionEndedMessage, ErrNotAuthenticated)
}

func asFailure(op string, err error, fallback string) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return newFailure(op, KindOf(err), MessageOf(err, fallback), err)
}

func (e *Engine) currentUserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return userIDOf(e.slot.user)
}
