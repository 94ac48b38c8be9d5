package goSession

import (
	"context"
	"time"

	"github.com/Unicash-organization/goSession/accountapi"
)

// User is the authenticated account profile.
type User = accountapi.User

// PaymentMethod summarizes the account's default card.
type PaymentMethod = accountapi.PaymentMethod

// LoginRequest and LoginResponse are the Account Service login payloads.
type (
	LoginRequest  = accountapi.LoginRequest
	LoginResponse = accountapi.LoginResponse
)

// AccountService is the remote authority on sessions and payment setup.
// *accountapi.Client implements it.
type AccountService interface {
	Me(ctx context.Context, token string) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	PaymentMethod(ctx context.Context, token string) (*PaymentMethod, error)
	BillingPortal(ctx context.Context, token, returnURL string) (string, error)
	CreateSetupIntent(ctx context.Context, token, idempotencyKey string) (string, error)
	SetDefaultPaymentMethod(ctx context.Context, token, paymentMethodID string) error
}

// Navigator moves the host UI. ToEntry is signalled after logout.
type Navigator interface {
	ToEntry(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) ToEntry(ctx context.Context) { f(ctx) }

type noopNavigator struct{}

func (noopNavigator) ToEntry(context.Context) {}

// LoadState reports whether the session has been resolved since start-up.
type LoadState uint8

const (
	LoadUnresolved LoadState = iota
	LoadResolving
	LoadResolved
)

func (s LoadState) String() string {
	switch s {
	case LoadUnresolved:
		return "unresolved"
	case LoadResolving:
		return "resolving"
	case LoadResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// SessionState is the authentication state of the engine's session.
type SessionState uint8

const (
	// StateUnauthenticated holds no token and no user.
	StateUnauthenticated SessionState = iota
	// StateResolving holds a token that has not been validated yet.
	StateResolving
	// StateAuthenticated holds a validated token and its user.
	StateAuthenticated
	// StateInvalid means the persisted record was unreadable and has been
	// cleared. Only a new login leaves this state.
	StateInvalid
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session at one instant.
type Snapshot struct {
	Token   string
	User    *User
	Loading LoadState
	State   SessionState
	// TokenExpiresAt is the token's exp claim, zero for opaque tokens.
	TokenExpiresAt time.Time
	// Version increases with every change to the session.
	Version uint64
}

// Authenticated reports whether the snapshot holds a validated session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Token != "" && s.User != nil
}

// TotalCredit is the user's membership plus boost credits.
func (s Snapshot) TotalCredit() int64 {
	return s.User.TotalCredit()
}

// LoginResult is returned by a successful Engine.Login.
type LoginResult struct {
	Token string
	User  *User
	// Persisted is false when the token could not be written to storage; the
	// session is live for this process only.
	Persisted bool
}
