package flows

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Unicash-organization/goSession/accountapi"
	"github.com/Unicash-organization/goSession/fingerprint"
	"github.com/Unicash-organization/goSession/internal/failure"
)

// LoginFallbackMessage is shown when the service gives no message of its own.
const LoginFallbackMessage = "Login failed"

type LoginService interface {
	Login(ctx context.Context, req accountapi.LoginRequest) (*accountapi.LoginResponse, error)
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Accounts    LoginService
	Fingerprint func(context.Context) (string, error)
	Logger      *slog.Logger
}

type LoginRequest struct {
	Identifier string
	Secret     string
}

type LoginResult struct {
	Token       string
	User        *accountapi.User
	Fingerprint string
}

// RunLogin attaches the device fingerprint and exchanges the credentials for
// a token. Failures come back as *failure.Failure.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) (*LoginResult, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Secret == "" {
		return nil, &failure.Failure{
			Kind:    failure.KindValidation,
			Message: "Email and password are required",
			Op:      "login",
		}
	}

	fp := fingerprint.ServerSentinel
	if deps.Fingerprint != nil {
		value, err := deps.Fingerprint(ctx)
		if err != nil && deps.Logger != nil {
			deps.Logger.WarnContext(ctx, "device fingerprint degraded", "error", err)
		}
		if value != "" {
			fp = value
		}
	}

	resp, err := deps.Accounts.Login(ctx, accountapi.LoginRequest{
		Identifier:        identifier,
		Secret:            req.Secret,
		DeviceFingerprint: fp,
	})
	if err != nil {
		return nil, failure.New("login", err, LoginFallbackMessage)
	}

	return &LoginResult{
		Token:       resp.Token,
		User:        resp.User,
		Fingerprint: fp,
	}, nil
}
