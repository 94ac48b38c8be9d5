package goSession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Unicash-organization/goSession/accountapi"
	"github.com/Unicash-organization/goSession/fingerprint"
	"github.com/Unicash-organization/goSession/processor"
	"github.com/Unicash-organization/goSession/storage"
)

// fakeAccounts is an in-memory Account Service. Tokens map to users; any
// token not present is rejected with 401.
type fakeAccounts struct {
	mu sync.Mutex

	passwords map[string]string
	users     map[string]*User
	nextToken int

	meErr   error
	meGate  chan struct{}
	meCalls int

	loginCalls []LoginRequest

	paymentMethod *PaymentMethod
	portalURL     string

	secrets      []string
	setupErr     error
	setupKeys    []string
	defaultErr   error
	defaultCalls []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		passwords: map[string]string{"a@b.com": "correct"},
		users:     map[string]*User{},
		portalURL: "https://billing.example/session/1",
	}
}

func (f *fakeAccounts) addSession(token string, user *User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[token] = user
}

func (f *fakeAccounts) setMeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meErr = err
}

func (f *fakeAccounts) Me(ctx context.Context, token string) (*User, error) {
	f.mu.Lock()
	f.meCalls++
	gate := f.meGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	u, ok := f.users[token]
	if !ok {
		return nil, unauthorized("me")
	}
	return u.Clone(), nil
}

func (f *fakeAccounts) waitForMeCalls(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		calls := f.meCalls
		f.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d revalidation calls before deadline", n)
}

func (f *fakeAccounts) Login(_ context.Context, req LoginRequest) (*LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls = append(f.loginCalls, req)

	if f.passwords[req.Identifier] != req.Secret {
		return nil, &accountapi.ServiceError{Op: "login", StatusCode: http.StatusBadRequest, Message: "Invalid email or password"}
	}
	f.nextToken++
	token := fmt.Sprintf("tok_%d", f.nextToken)
	user := &User{ID: "u1", Email: req.Identifier, MembershipCredits: 5, BoostCredits: 2}
	f.users[token] = user
	return &LoginResponse{Token: token, User: user.Clone()}, nil
}

func (f *fakeAccounts) PaymentMethod(_ context.Context, token string) (*PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[token]; !ok {
		return nil, unauthorized("payment_method")
	}
	if f.paymentMethod == nil {
		return nil, nil
	}
	pm := *f.paymentMethod
	return &pm, nil
}

func (f *fakeAccounts) BillingPortal(_ context.Context, token, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[token]; !ok {
		return "", unauthorized("billing_portal")
	}
	return f.portalURL, nil
}

func (f *fakeAccounts) CreateSetupIntent(_ context.Context, token, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupKeys = append(f.setupKeys, key)
	if f.setupErr != nil {
		return "", f.setupErr
	}
	if _, ok := f.users[token]; !ok {
		return "", unauthorized("setup_intent")
	}
	secret := fmt.Sprintf("seti_%d_secret_x", len(f.secrets)+1)
	f.secrets = append(f.secrets, secret)
	return secret, nil
}

func (f *fakeAccounts) SetDefaultPaymentMethod(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultCalls = append(f.defaultCalls, id)
	return f.defaultErr
}

func unauthorized(op string) error {
	return &accountapi.ServiceError{Op: op, StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
}

func serviceUnavailable(op string) error {
	return &accountapi.ServiceError{Op: op, StatusCode: http.StatusServiceUnavailable}
}

func unreachable(op string) error {
	return &accountapi.ServiceError{Op: op, Err: fmt.Errorf("%w: dial tcp: connection refused", accountapi.ErrTransport)}
}

// fakeProcessor confirms setup intents from a scripted response.
type fakeProcessor struct {
	mu      sync.Mutex
	result  *processor.SetupResult
	err     error
	gate    chan struct{}
	secrets []string
}

func (p *fakeProcessor) ConfirmSetup(ctx context.Context, req processor.ConfirmRequest) (*processor.SetupResult, error) {
	p.mu.Lock()
	p.secrets = append(p.secrets, req.ClientSecret)
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if p.result != nil {
		return p.result, nil
	}
	return &processor.SetupResult{
		ID:            "seti_1",
		Status:        "succeeded",
		PaymentMethod: processor.PaymentMethodRef{ID: "pm_1"},
	}, nil
}

func (p *fakeProcessor) confirmedSecrets() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.secrets...)
}

// failingStore wraps a store and fails writes to one key.
type failingStore struct {
	storage.Store
	failKey string
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == s.failKey {
		return fmt.Errorf("%w: disk full", storage.ErrUnavailable)
	}
	return s.Store.Set(ctx, key, value)
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls int
}

func (n *recordingNavigator) ToEntry(context.Context) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type testEngine struct {
	*Engine
	accounts  *fakeAccounts
	processor *fakeProcessor
	store     *storage.MemoryStore
	navigator *recordingNavigator
}

func testEnvironment() fingerprint.Environment {
	return fingerprint.Environment{
		UserAgent: "goSession-test",
		Platform:  "linux",
		CPUCores:  8,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, mutate func(*Builder)) *testEngine {
	t.Helper()

	te := &testEngine{
		accounts:  newFakeAccounts(),
		processor: &fakeProcessor{},
		store:     storage.NewMemoryStore(),
		navigator: &recordingNavigator{},
	}

	b := New().
		WithStorage(te.store).
		WithAccountService(te.accounts).
		WithProcessor(te.processor).
		WithEnvironment(testEnvironment()).
		WithNavigator(te.navigator).
		WithLogger(quietLogger()).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) })
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	te.Engine = engine
	return te
}

func (te *testEngine) persistedToken(t *testing.T) string {
	t.Helper()
	rec, err := te.credentials.Load(context.Background())
	if err != nil {
		return ""
	}
	return rec.Token
}

func expectKind(t *testing.T, err error, want Kind) *Failure {
	t.Helper()
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T (%v)", err, err)
	}
	if f.Kind != want {
		t.Fatalf("expected kind %s, got %s", want, f.Kind)
	}
	return f
}
