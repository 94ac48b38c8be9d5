package flows

import (
	"context"
	"time"

	"github.com/Unicash-organization/goSession/accountapi"
	"github.com/Unicash-organization/goSession/internal/failure"
)

// RevalidateFallbackMessage is used when a transient failure carries no message.
const RevalidateFallbackMessage = "Could not verify session"

// Outcome is the session-level meaning of a revalidation.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejected
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

type RevalidateService interface {
	Me(ctx context.Context, token string) (*accountapi.User, error)
}

// RevalidateDeps captures revalidation dependencies.
type RevalidateDeps struct {
	Accounts RevalidateService
	Now      func() time.Time
}

// RevalidateResult is the classified result of GET /me.
type RevalidateResult struct {
	Outcome Outcome
	User    *accountapi.User
	Failure *failure.Failure
	Latency time.Duration
}

// RunRevalidate checks token against the service. Only an explicit rejection
// of the credential yields OutcomeRejected; every other failure, whatever its
// cause, is transient and keeps the session.
func RunRevalidate(ctx context.Context, token string, deps RevalidateDeps) RevalidateResult {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	user, err := deps.Accounts.Me(ctx, token)
	latency := now().Sub(start)

	if err == nil && user != nil {
		return RevalidateResult{Outcome: OutcomeAccepted, User: user, Latency: latency}
	}
	if err == nil {
		err = accountapi.ErrMalformedResponse
	}

	if failure.KindOf(err) == failure.KindAuthRejected {
		return RevalidateResult{
			Outcome: OutcomeRejected,
			Failure: &failure.Failure{
				Kind:    failure.KindAuthRejected,
				Message: failure.MessageOf(err, "Session expired"),
				Op:      "revalidate",
				Err:     err,
			},
			Latency: latency,
		}
	}

	return RevalidateResult{
		Outcome: OutcomeTransient,
		Failure: &failure.Failure{
			Kind:    failure.KindTransient,
			Message: failure.MessageOf(err, RevalidateFallbackMessage),
			Op:      "revalidate",
			Err:     err,
		},
		Latency: latency,
	}
}
