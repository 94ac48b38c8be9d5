package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "gs"
	scanBatchSize      = 256
)

// RedisStore maps one installation onto a Redis keyspace
// "<prefix>:<installation>:<key>". Values carry no TTL; they live until
// deleted, like browser local storage.
type RedisStore struct {
	redis     redis.UniversalClient
	namespace string
}

// NewRedisStore binds installationID under prefix. An empty prefix uses "gs".
func NewRedisStore(client redis.UniversalClient, prefix, installationID string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("storage: redis client is required")
	}
	if strings.TrimSpace(installationID) == "" {
		return nil, errors.New("storage: installation id is required")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		redis:     client,
		namespace: prefix + ":" + installationID + ":",
	}, nil
}

func (s *RedisStore) key(k string) string {
	return s.namespace + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	v, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeletePrefix scans the installation keyspace and deletes matches in
// batches. It is not atomic: a key written under prefix while the scan runs
// may survive.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := validKey(prefix); err != nil {
		return 0, err
	}
	full, err := s.scan(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(full) == 0 {
		return 0, nil
	}

	removed := 0
	for start := 0; start < len(full); start += scanBatchSize {
		end := start + scanBatchSize
		if end > len(full) {
			end = len(full)
		}
		n, err := s.redis.Del(ctx, full[start:end]...).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		removed += int(n)
	}
	return removed, nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	full, err := s.scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(full))
	for _, k := range full {
		out = append(out, strings.TrimPrefix(k, s.namespace))
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.namespace+prefix) + "*"

	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		out = append(out, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return dedupe(out), nil
}

// SCAN may return a key more than once across iterations.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
