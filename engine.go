package goSession

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Unicash-organization/goSession/credential"
	"github.com/Unicash-organization/goSession/fingerprint"
	"github.com/Unicash-organization/goSession/internal/audit"
	"github.com/Unicash-organization/goSession/internal/flows"
	"github.com/Unicash-organization/goSession/internal/metrics"
	"github.com/Unicash-organization/goSession/internal/reqctx"
	"github.com/Unicash-organization/goSession/jwt"
	"github.com/Unicash-organization/goSession/processor"
	"github.com/Unicash-organization/goSession/storage"
	"golang.org/x/sync/singleflight"
)

const (
	restoreFallbackMessage       = "Could not restore session"
	saveFallbackMessage          = "Could not save session"
	paymentMethodFallbackMessage = "Could not load payment method"
	billingPortalFallbackMessage = "Could not open billing portal"
)

// Engine owns the process's single session slot. All methods are safe for
// concurrent use. Obtain one from Builder.Build.
type Engine struct {
	config       Config
	accounts     AccountService
	processor    processor.Processor
	store        storage.Store
	credentials  *credential.Store
	fingerprints *fingerprint.Generator
	navigator    Navigator
	logger       *slog.Logger
	audit        *audit.Dispatcher
	metrics      *metrics.Registry
	flows        flows.Service
	now          func() time.Time

	refreshGroup singleflight.Group

	// persistMu serializes credential writes with the slot change that
	// follows them. Taken before mu, never inside it.
	persistMu sync.Mutex

	// mu guards everything below. Never held across an Account Service call.
	mu          sync.Mutex
	slot        sessionSlot
	generation  uint64
	version     uint64
	watchers    map[uint64]chan Snapshot
	nextWatcher uint64
	closed      bool
}

type sessionSlot struct {
	token     string
	user      *User
	loading   LoadState
	state     SessionState
	expiresAt time.Time
}

/*
====================================
READ SURFACE
====================================
*/

// Snapshot returns a copy of the current session.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// TotalCredit returns membership plus boost credits of the current user, or
// zero without a user.
func (e *Engine) TotalCredit() int64 {
	return e.Snapshot().TotalCredit()
}

// DeviceFingerprint returns the installation's fingerprint. A non-nil error
// wrapping fingerprint.ErrNotPersisted accompanies a usable value.
func (e *Engine) DeviceFingerprint(ctx context.Context) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return e.fingerprints.GetOrCreate(ctx)
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Token:          e.slot.token,
		User:           e.slot.user.Clone(),
		Loading:        e.slot.loading,
		State:          e.slot.state,
		TokenExpiresAt: e.slot.expiresAt,
		Version:        e.version,
	}
}

func (e *Engine) sessionToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot.token
}

/*
====================================
LIFECYCLE
====================================
*/

// Initialize restores the persisted session, if any, and revalidates it.
//
// Without a persisted token the engine resolves to StateUnauthenticated. An
// undecodable record is cleared and the engine lands on StateInvalid. A
// transient revalidation failure leaves the engine in StateResolving with
// LoadResolved and is returned as a *Failure of KindTransient.
func (e *Engine) Initialize(ctx context.Context) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	e.mu.Lock()
	e.slot.loading = LoadResolving
	e.publishLocked()
	e.mu.Unlock()

	token, gen, err := e.recoverToken(ctx)
	if err != nil || token == "" {
		return err
	}
	return e.revalidate(ctx, token, gen)
}

// Refresh revalidates the current token, recovering it from storage first
// when the slot is empty. Without any token Refresh does nothing.
//
// Concurrent calls share one request. The shared request carries the first
// caller's values but not its cancellation; each caller stops waiting when
// its own ctx is done and gets ctx.Err(), while the request completes for
// the others.
func (e *Engine) Refresh(ctx context.Context) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)
	shared := context.WithoutCancel(ctx)

	ch := e.refreshGroup.DoChan("refresh", func() (any, error) {
		e.mu.Lock()
		token, gen := e.slot.token, e.generation
		e.mu.Unlock()

		if token == "" {
			var err error
			token, gen, err = e.recoverToken(shared)
			if err != nil || token == "" {
				return nil, err
			}
		}
		return nil, e.revalidate(shared, token, gen)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recoverToken adopts the persisted token into an empty slot. It returns an
// empty token when there is nothing to revalidate.
func (e *Engine) recoverToken(ctx context.Context) (string, uint64, error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	e.mu.Lock()
	if e.slot.token != "" {
		token, gen := e.slot.token, e.generation
		e.mu.Unlock()
		return token, gen, nil
	}
	e.mu.Unlock()

	rec, err := e.credentials.Load(ctx)
	switch {
	case err == nil && rec.Token != "":
		var expiresAt time.Time
		if claims, inspectErr := jwt.Inspect(rec.Token); inspectErr == nil {
			expiresAt = claims.ExpiresAt
			if claims.Expired(e.now(), 0) {
				e.logger.InfoContext(ctx, "persisted token is past its exp claim, revalidating anyway",
					"expires_at", claims.ExpiresAt,
				)
			}
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		e.generation++
		e.slot = sessionSlot{
			token:     rec.Token,
			loading:   LoadResolving,
			state:     StateResolving,
			expiresAt: expiresAt,
		}
		e.publishLocked()
		return rec.Token, e.generation, nil

	case err == nil, errors.Is(err, credential.ErrNoCredential):
		e.mu.Lock()
		e.slot.loading = LoadResolved
		e.publishLocked()
		e.mu.Unlock()
		return "", 0, nil

	case errors.Is(err, credential.ErrCorrupt):
		e.metricInc(metrics.CredentialCorrupt)
		e.logger.WarnContext(ctx, "persisted session record is corrupt, clearing", "error", err)
		if clearErr := e.credentials.Clear(ctx); clearErr != nil {
			e.metricInc(metrics.StorageFailure)
			e.logger.WarnContext(ctx, "could not clear corrupt session record", "error", clearErr)
		}
		e.mu.Lock()
		e.generation++
		e.slot = sessionSlot{loading: LoadResolved, state: StateInvalid}
		e.publishLocked()
		e.mu.Unlock()
		e.emitAudit(ctx, AuditCredentialCorrupt, false, "", err, nil)
		return "", 0, nil

	default:
		e.metricInc(metrics.StorageFailure)
		e.logger.WarnContext(ctx, "could not read persisted session", "error", err)
		e.mu.Lock()
		e.slot.loading = LoadResolved
		e.publishLocked()
		e.mu.Unlock()
		return "", 0, newFailure("restore", KindTransient, restoreFallbackMessage, err)
	}
}

// revalidate checks token against the Account Service and applies the result
// unless the slot moved on while the request was in flight.
func (e *Engine) revalidate(ctx context.Context, token string, gen uint64) error {
	e.mu.Lock()
	if e.generation == gen && e.slot.token == token && e.slot.loading != LoadResolving {
		e.slot.loading = LoadResolving
		e.publishLocked()
	}
	e.mu.Unlock()

	res := e.flows.Revalidate(ctx, token)
	e.metricObserve(metrics.RevalidateLatency, res.Latency)

	switch res.Outcome {
	case flows.OutcomeAccepted:
		e.mu.Lock()
		if e.staleLocked(token, gen) {
			e.mu.Unlock()
			e.metricInc(metrics.RevalidateDiscarded)
			return nil
		}
		e.slot.user = res.User.Clone()
		e.slot.state = StateAuthenticated
		e.slot.loading = LoadResolved
		e.publishLocked()
		e.mu.Unlock()

		e.metricInc(metrics.RevalidateSuccess)
		e.emitAudit(ctx, AuditRevalidateSuccess, true, res.User.ID, nil, nil)
		return nil

	case flows.OutcomeRejected:
		e.persistMu.Lock()
		defer e.persistMu.Unlock()

		e.mu.Lock()
		stale := e.staleLocked(token, gen)
		e.mu.Unlock()
		if stale {
			e.metricInc(metrics.RevalidateDiscarded)
			return nil
		}

		if err := e.credentials.Clear(ctx); err != nil {
			e.metricInc(metrics.StorageFailure)
			e.logger.WarnContext(ctx, "could not clear rejected session token", "error", err)
		}

		e.mu.Lock()
		userID := userIDOf(e.slot.user)
		e.generation++
		e.slot = sessionSlot{loading: LoadResolved, state: StateUnauthenticated}
		e.publishLocked()
		e.mu.Unlock()

		e.metricInc(metrics.RevalidateRejected)
		e.logger.InfoContext(ctx, "session rejected by account service")
		e.emitAudit(ctx, AuditRevalidateRejected, false, userID, res.Failure, nil)
		return res.Failure

	default:
		e.mu.Lock()
		if e.staleLocked(token, gen) {
			e.mu.Unlock()
			e.metricInc(metrics.RevalidateDiscarded)
			return nil
		}
		e.slot.loading = LoadResolved
		userID := userIDOf(e.slot.user)
		e.publishLocked()
		e.mu.Unlock()

		e.metricInc(metrics.RevalidateTransient)
		e.logger.WarnContext(ctx, "session revalidation failed, keeping session",
			"kind", res.Failure.Kind.String(),
			"error", res.Failure.Err,
		)
		e.emitAudit(ctx, AuditRevalidateTransient, false, userID, res.Failure, nil)
		return res.Failure
	}
}

func (e *Engine) staleLocked(token string, gen uint64) bool {
	return e.generation != gen || e.slot.token != token
}

/*
====================================
MUTATIONS
====================================
*/

// Login exchanges credentials for a session. On failure the current session
// is left untouched and the returned *Failure carries a display message.
//
// A token that cannot be persisted still becomes the live session;
// LoginResult.Persisted reports false.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	res, err := e.flows.Login(ctx, flows.LoginRequest{Identifier: identifier, Secret: secret})
	if err == nil && (res == nil || res.Token == "" || res.User == nil) {
		err = newFailure("login", KindIntegration, flows.LoginFallbackMessage, errors.New("login response carries no session"))
	}
	if err != nil {
		e.metricInc(metrics.LoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, "", err, nil)
		return nil, err
	}

	persisted := true
	if err := e.commitSession(ctx, res.Token, res.User); err != nil {
		persisted = false
		e.metricInc(metrics.StorageFailure)
		e.logger.WarnContext(ctx, "session token not persisted", "error", err)
	}

	e.metricInc(metrics.LoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, true, res.User.ID, nil, func() map[string]string {
		if persisted {
			return nil
		}
		return map[string]string{"persisted": "false"}
	})

	return &LoginResult{
		Token:     res.Token,
		User:      res.User.Clone(),
		Persisted: persisted,
	}, nil
}

// SetAuth persists and adopts a token and user obtained elsewhere, without a
// network call. The session is adopted even when persisting fails; the
// returned error then has KindTransient.
func (e *Engine) SetAuth(ctx context.Context, token string, user *User) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	if token == "" || user == nil {
		return ErrInvalidArgument
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	err := e.commitSession(ctx, token, user)
	e.metricInc(metrics.SetAuth)
	if err != nil {
		e.metricInc(metrics.StorageFailure)
		e.logger.WarnContext(ctx, "session token not persisted", "error", err)
		e.emitAudit(ctx, AuditSetAuth, false, user.ID, err, nil)
		return newFailure("set_auth", KindTransient, saveFallbackMessage, err)
	}
	e.emitAudit(ctx, AuditSetAuth, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) commitSession(ctx context.Context, token string, user *User) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	err := e.credentials.Save(ctx, token)

	e.mu.Lock()
	e.generation++
	e.slot = sessionSlot{
		token:     token,
		user:      user.Clone(),
		loading:   LoadResolved,
		state:     StateAuthenticated,
		expiresAt: jwt.ExpiresAt(token),
	}
	e.publishLocked()
	e.mu.Unlock()

	return err
}

// Logout clears the session in memory and in storage, purges every key under
// the processor's storage namespaces and signals the navigator. The in-memory
// session is always cleared; storage failures are joined into the error.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	e.persistMu.Lock()
	res := e.flows.Logout(ctx)

	e.mu.Lock()
	userID := userIDOf(e.slot.user)
	e.generation++
	e.slot = sessionSlot{loading: LoadResolved, state: StateUnauthenticated}
	e.publishLocked()
	e.mu.Unlock()
	e.persistMu.Unlock()

	e.metricInc(metrics.Logout)
	if res.Err != nil {
		e.metricInc(metrics.StorageFailure)
		e.logger.WarnContext(ctx, "logout left storage behind", "error", res.Err)
	}
	e.emitAudit(ctx, AuditLogout, res.Err == nil, userID, res.Err, func() map[string]string {
		return map[string]string{"purged": strconv.Itoa(res.Purged)}
	})

	e.navigator.ToEntry(ctx)
	return res.Err
}

/*
====================================
ACCOUNT PAYMENT QUERIES
====================================
*/

// CurrentPaymentMethod returns the account's default card, or nil when none
// is on file. A rejected token is reported but does not end the session; call
// Refresh to reconcile.
func (e *Engine) CurrentPaymentMethod(ctx context.Context) (*PaymentMethod, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	token := e.sessionToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	pm, err := e.accounts.PaymentMethod(ctx, token)
	if err != nil {
		return nil, newFailure("payment_method", KindOf(err), MessageOf(err, paymentMethodFallbackMessage), err)
	}
	return pm, nil
}

// BillingPortalURL returns a one-time link to the processor's billing portal.
// An empty returnURL falls back to Config.Payment.ReturnURL.
func (e *Engine) BillingPortalURL(ctx context.Context, returnURL string) (string, error) {
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}
	token := e.sessionToken()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	if returnURL == "" {
		returnURL = e.config.Payment.ReturnURL
	}
	ctx, _ = reqctx.EnsureRequestID(ctx)

	link, err := e.accounts.BillingPortal(ctx, token, returnURL)
	if err != nil {
		return "", newFailure("billing_portal", KindOf(err), MessageOf(err, billingPortalFallbackMessage), err)
	}
	return link, nil
}

/*
====================================
WATCHERS
====================================
*/

// Watch returns a channel receiving a Snapshot on every session change,
// starting with the current one. A slow reader loses intermediate snapshots,
// never the latest. The cancel func closes the channel. buffer below 1 is
// treated as 1.
func (e *Engine) Watch(buffer int) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, max(buffer, 1))
	if e == nil {
		close(ch)
		return ch, func() {}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := e.nextWatcher
	e.nextWatcher++
	e.watchers[id] = ch
	ch <- e.snapshotLocked()
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if w, ok := e.watchers[id]; ok {
				delete(e.watchers, id)
				close(w)
			}
		})
	}
}

func (e *Engine) publishLocked() {
	e.version++
	if len(e.watchers) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for _, ch := range e.watchers {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

/*
====================================
SHUTDOWN / TELEMETRY
====================================
*/

// Close stops the audit dispatcher after draining it and closes every
// watcher channel. The session itself is left as is.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		for id, ch := range e.watchers {
			delete(e.watchers, id)
			close(ch)
		}
	}
	e.mu.Unlock()

	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func userIDOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
