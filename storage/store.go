package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable wraps backend failures (I/O, network, closed handle).
	ErrUnavailable = errors.New("storage: backend unavailable")
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Store is a durable, installation-scoped key/value slot.
//
// Implementations must be safe for concurrent use. Set replaces the previous
// value atomically; DeletePrefix removes every key that starts with prefix and
// reports how many were removed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func matchingKeys(data map[string][]byte, prefix string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
