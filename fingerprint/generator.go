package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Unicash-organization/goSession/storage"
)

const (
	// DefaultKey is the storage key holding the fingerprint.
	DefaultKey = "device_fingerprint"
	// ServerSentinel is returned when no durable storage is available.
	ServerSentinel = "fp-server"

	prefix = "fp-"
)

// ErrNotPersisted accompanies a usable value that could not be written to
// (or read back from) durable storage. The write is retried on the next call.
var ErrNotPersisted = errors.New("fingerprint: value not persisted")

// Generator returns the installation's fingerprint, creating it on first use.
type Generator struct {
	store storage.Store
	key   string
	env   Environment

	mu      sync.Mutex
	pending string
}

// NewGenerator binds a generator to store. A nil store makes every call return
// ServerSentinel. An empty key uses DefaultKey.
func NewGenerator(store storage.Store, key string, env Environment) *Generator {
	if key == "" {
		key = DefaultKey
	}
	return &Generator{
		store: store,
		key:   key,
		env:   env,
	}
}

// GetOrCreate returns the persisted fingerprint, or derives, persists and
// returns a new one. A persisted value is never recomputed.
//
// When storage fails the returned value is still usable and err wraps
// ErrNotPersisted; the same value is returned by later calls in this process
// unless storage turns out to hold one already.
func (g *Generator) GetOrCreate(ctx context.Context) (string, error) {
	if g == nil || g.store == nil {
		return ServerSentinel, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	raw, err := g.store.Get(ctx, g.key)
	switch {
	case err == nil && len(raw) > 0:
		g.pending = ""
		return string(raw), nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		value, genErr := g.pendingValue()
		if genErr != nil {
			return "", genErr
		}
		return value, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}

	value, err := g.pendingValue()
	if err != nil {
		return "", err
	}
	if err := g.store.Set(ctx, g.key, []byte(value)); err != nil {
		return value, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	g.pending = ""
	return value, nil
}

func (g *Generator) pendingValue() (string, error) {
	if g.pending != "" {
		return g.pending, nil
	}
	suffix, err := randomSuffix()
	if err != nil {
		return "", fmt.Errorf("fingerprint: random suffix: %w", err)
	}
	g.pending = prefix + Compose(g.env.Components()) + "-" + suffix
	return g.pending, nil
}
