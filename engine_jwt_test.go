package goSession

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: gojwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSetAuthSurfacesTokenExpiry(t *testing.T) {
	te := newTestEngine(t, nil)
	exp := time.Unix(1_700_003_600, 0)
	token := signedToken(t, exp)

	if err := te.SetAuth(context.Background(), token, &User{ID: "u1"}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if got := te.Snapshot().TokenExpiresAt; !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got)
	}

	if err := te.SetAuth(context.Background(), "tok_opaque", &User{ID: "u1"}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if got := te.Snapshot().TokenExpiresAt; !got.IsZero() {
		t.Fatalf("expected zero expiry for opaque token, got %v", got)
	}
}

func TestRestoreExpiredTokenStillRevalidates(t *testing.T) {
	var logs bytes.Buffer
	te := newTestEngine(t, func(b *Builder) {
		b.WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	})
	ctx := context.Background()

	exp := time.Unix(1_699_996_400, 0)
	token := signedToken(t, exp)
	te.accounts.addSession(token, &User{ID: "u1"})
	if err := te.credentials.Save(ctx, token); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := te.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	snap := te.Snapshot()
	if !snap.Authenticated() {
		t.Fatalf("expected the account service to decide, got state %s", snap.State)
	}
	if !snap.TokenExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, snap.TokenExpiresAt)
	}
	if te.accounts.meCalls != 1 {
		t.Fatalf("expected one revalidation, got %d", te.accounts.meCalls)
	}
	if !strings.Contains(logs.String(), "past its exp claim") {
		t.Fatalf("expected expiry diagnostic in logs, got %q", logs.String())
	}
}
