package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims gjwt.RegisteredClaims) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("not-the-service-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestInspectReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	iat := exp.Add(-time.Hour)
	token := signToken(t, gjwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "unicash",
		Audience:  gjwt.ClaimStrings{"web"},
		IssuedAt:  gjwt.NewNumericDate(iat),
		ExpiresAt: gjwt.NewNumericDate(exp),
	})

	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Issuer != "unicash" || len(claims.Audience) != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) || !claims.IssuedAt.Equal(iat) {
		t.Fatalf("expected exp %v iat %v, got %+v", exp, iat, claims)
	}
	if got := ExpiresAt(token); !got.Equal(exp) {
		t.Fatalf("expected ExpiresAt %v, got %v", exp, got)
	}
}

func TestInspectIgnoresExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	token := signToken(t, gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(past)})

	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("expired token must still be inspectable, got %v", err)
	}
	if !claims.Expired(time.Now(), 0) {
		t.Fatal("expected token to read as expired")
	}
	if claims.Expired(past.Add(-time.Minute), 0) {
		t.Fatal("expected token to be live before its exp")
	}
	if !claims.Expired(past.Add(30*time.Second), 10*time.Second) {
		t.Fatal("expected leeway to be subtracted from now")
	}
}

func TestInspectOpaqueTokens(t *testing.T) {
	for _, token := range []string{"", "tok_1", "a.b", "a.b.c.d", "###.###.###"} {
		if _, err := Inspect(token); !errors.Is(err, ErrOpaqueToken) {
			t.Fatalf("%q: expected ErrOpaqueToken, got %v", token, err)
		}
		if got := ExpiresAt(token); !got.IsZero() {
			t.Fatalf("%q: expected zero expiry, got %v", token, got)
		}
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	token := signToken(t, gjwt.RegisteredClaims{Subject: "u1"})
	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if claims.HasExpiry() || claims.Expired(time.Now().Add(100*365*24*time.Hour), 0) {
		t.Fatal("claims without exp must never expire locally")
	}
}
