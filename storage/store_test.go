package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			open: func(t *testing.T) Store { return NewMemoryStore() },
		},
		{
			name: "file",
			open: func(t *testing.T) Store {
				s, err := OpenFileStore(filepath.Join(t.TempDir(), "state.cbor"))
				if err != nil {
					t.Fatalf("OpenFileStore failed: %v", err)
				}
				return s
			},
		},
		{
			name: "redis",
			open: func(t *testing.T) Store {
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() {
					_ = rdb.Close()
					mr.Close()
				})
				s, err := NewRedisStore(rdb, "test", "install-1")
				if err != nil {
					t.Fatalf("NewRedisStore failed: %v", err)
				}
				return s
			},
		},
	}
}

func TestStoreGetSetDelete(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			if _, err := s.Get(ctx, "auth_token"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Set(ctx, "auth_token", []byte("tok_1")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := s.Get(ctx, "auth_token")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != "tok_1" {
				t.Fatalf("expected tok_1, got %q", got)
			}
			if err := s.Delete(ctx, "auth_token"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if err := s.Delete(ctx, "auth_token"); err != nil {
				t.Fatalf("second Delete should be a no-op, got %v", err)
			}
			if _, err := s.Get(ctx, "auth_token"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestStoreDeletePrefixRemovesOnlyNamespace(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			for _, k := range []string{"__stripe_mid", "__stripe_sid", "auth_token", "device_fingerprint"} {
				if err := s.Set(ctx, k, []byte("v")); err != nil {
					t.Fatalf("Set(%s) failed: %v", k, err)
				}
			}

			n, err := s.DeletePrefix(ctx, "__stripe_")
			if err != nil {
				t.Fatalf("DeletePrefix failed: %v", err)
			}
			if n != 2 {
				t.Fatalf("expected 2 removed keys, got %d", n)
			}

			left, err := s.Keys(ctx, "")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(left) != 2 || left[0] != "auth_token" || left[1] != "device_fingerprint" {
				t.Fatalf("unexpected remaining keys: %v", left)
			}
		})
	}
}

func TestStoreRejectsEmptyKeyAndPrefix(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)

			if err := s.Set(ctx, " ", []byte("x")); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
			if _, err := s.DeletePrefix(ctx, ""); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey for empty prefix, got %v", err)
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.cbor")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if err := s.Set(ctx, "device_fingerprint", []byte("fp-abc-123")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Get(ctx, "device_fingerprint")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "fp-abc-123" {
		t.Fatalf("expected persisted value, got %q", got)
	}
}

func TestRedisStoreIsolatesInstallations(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	a, _ := NewRedisStore(rdb, "", "a")
	b, _ := NewRedisStore(rdb, "", "b")

	if err := a.Set(ctx, "auth_token", []byte("tok_a")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := b.Get(ctx, "auth_token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected installation b to be empty, got %v", err)
	}
	if !mr.Exists("gs:a:auth_token") {
		t.Fatal("expected key under default prefix")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s, _ := NewRedisStore(rdb, "", "a")
	mr.Close()

	if _, err := s.Get(context.Background(), "auth_token"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
