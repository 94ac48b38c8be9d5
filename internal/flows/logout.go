package flows

import (
	"context"
	"errors"
	"fmt"
)

type CredentialClearer interface {
	Clear(ctx context.Context) error
}

type PrefixPurger interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Credentials CredentialClearer
	Storage     PrefixPurger
	Namespaces  []string
}

type LogoutResult struct {
	Purged int
	Err    error
}

// RunLogout clears the persisted credential and purges every key under the
// processor namespaces. Every step runs even if an earlier one failed.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	var errs []error
	if deps.Credentials != nil {
		if err := deps.Credentials.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear credential: %w", err))
		}
	}

	purged := 0
	if deps.Storage != nil {
		for _, ns := range deps.Namespaces {
			n, err := deps.Storage.DeletePrefix(ctx, ns)
			purged += n
			if err != nil {
				errs = append(errs, fmt.Errorf("purge %q: %w", ns, err))
			}
		}
	}

	return LogoutResult{Purged: purged, Err: errors.Join(errs...)}
}
