package credential

import (
	"context"
	"errors"
	"time"

	"github.com/Unicash-organization/goSession/storage"
)

// DefaultKey is the storage key holding the session token record.
const DefaultKey = "auth_token"

var (
	// ErrNoCredential is returned by Load when nothing is persisted.
	ErrNoCredential = errors.New("credential: none persisted")
	// ErrCorrupt is returned when the persisted record cannot be decoded.
	ErrCorrupt = errors.New("credential: corrupt record")
)

// Store is the process-wide persisted slot holding at most one token.
type Store struct {
	backend storage.Store
	key     string
	now     func() time.Time
}

// NewStore wraps backend. An empty key uses DefaultKey.
func NewStore(backend storage.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		backend: backend,
		key:     key,
		now:     time.Now,
	}
}

// Key returns the storage key of the record.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted record, ErrNoCredential when the slot is empty,
// or ErrCorrupt when it holds an undecodable value. Backend failures are
// returned wrapped with storage.ErrUnavailable.
func (s *Store) Load(ctx context.Context) (Record, error) {
	if s == nil || s.backend == nil {
		return Record{}, ErrNoCredential
	}
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Record{}, ErrNoCredential
		}
		return Record{}, err
	}
	return Decode(raw)
}

// Save replaces the slot with token.
func (s *Store) Save(ctx context.Context, token string) error {
	if s == nil || s.backend == nil {
		return nil
	}
	encoded, err := Encode(Record{Token: token, SavedAt: s.now().Unix()})
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key, encoded)
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Delete(ctx, s.key)
}
