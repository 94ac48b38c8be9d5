package flows

import (
	"context"

	"github.com/Unicash-organization/goSession/processor"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Login.Accounts != nil && s.deps.Revalidate.Accounts != nil
}

func (s Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	return RunLogin(ctx, req, s.deps.Login)
}

func (s Service) Revalidate(ctx context.Context, token string) RevalidateResult {
	return RunRevalidate(ctx, token, s.deps.Revalidate)
}

func (s Service) Logout(ctx context.Context) LogoutResult {
	return RunLogout(ctx, s.deps.Logout)
}

func (s Service) OpenSetup(ctx context.Context, token string) (OpenSetupResult, error) {
	return RunOpenSetup(ctx, token, s.deps.Payment)
}

func (s Service) ConfirmSetup(ctx context.Context, req processor.ConfirmRequest) (string, error) {
	return RunConfirmSetup(ctx, req, s.deps.Payment)
}

func (s Service) FinalizeSetup(ctx context.Context, token, paymentMethodID string) error {
	return RunFinalizeSetup(ctx, token, paymentMethodID, s.deps.Payment)
}
