package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec(Config{
		Secret:   []byte("test-secret-test-secret"),
		Issuer:   "goiam-test",
		Audience: "goiam-test",
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign("user-1", time.Minute, Extra{
		Email:       "alice@example.com",
		Role:        "regular",
		Permissions: []string{"coffees.read"},
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := codec.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if claims.Role != "regular" {
		t.Fatalf("role = %q", claims.Role)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "coffees.read" {
		t.Fatalf("permissions = %v", claims.Permissions)
	}
	if claims.RefreshTokenID != "" {
		t.Fatalf("access token carries refresh token id %q", claims.RefreshTokenID)
	}
}

func TestCodecRefreshClaims(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign("user-1", time.Minute, Extra{RefreshTokenID: "rt-123"})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := codec.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.RefreshTokenID != "rt-123" {
		t.Fatalf("refresh token id = %q, want rt-123", claims.RefreshTokenID)
	}
	if claims.Email != "" || claims.Role != "" {
		t.Fatalf("refresh token leaked identity claims: %+v", claims)
	}
}

func TestCodecExpired(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign("user-1", time.Millisecond, Extra{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := codec.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify error = %v, want ErrExpired", err)
	}
}

func TestCodecClaimMismatch(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewCodec(Config{
		Secret:   []byte("test-secret-test-secret"),
		Issuer:   "someone-else",
		Audience: "goiam-test",
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	signed, err := other.Sign("user-1", time.Minute, Extra{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := codec.Verify(signed); !errors.Is(err, ErrClaimMismatch) {
		t.Fatalf("Verify error = %v, want ErrClaimMismatch", err)
	}
}

func TestCodecMalformed(t *testing.T) {
	codec := newTestCodec(t)

	cases := map[string]string{
		"garbage":     "not-a-token",
		"empty":       "",
		"wrong parts": "a.b",
	}
	for name, raw := range cases {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: Verify error = %v, want ErrMalformed", name, err)
		}
	}
}

func TestCodecWrongSecret(t *testing.T) {
	codec := newTestCodec(t)

	forger, err := NewCodec(Config{
		Secret:   []byte("a-different-secret-entirely"),
		Issuer:   "goiam-test",
		Audience: "goiam-test",
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	forged, err := forger.Sign("user-1", time.Minute, Extra{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := codec.Verify(forged); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Verify error = %v, want ErrMalformed", err)
	}
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec(Config{}); err == nil {
		t.Fatal("NewCodec accepted empty secret")
	}
	if _, err := NewCodec(Config{Secret: []byte("x"), Leeway: 5 * time.Minute}); err == nil {
		t.Fatal("NewCodec accepted excessive leeway")
	}
	if _, err := NewCodec(Config{Secret: []byte("x"), Leeway: -time.Second}); err == nil {
		t.Fatal("NewCodec accepted negative leeway")
	}
}

func TestCodecLeewayToleratesClockSkew(t *testing.T) {
	codec, err := NewCodec(Config{
		Secret: []byte("test-secret-test-secret"),
		Leeway: time.Minute,
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	signed, err := codec.Sign("user-1", time.Millisecond, Extra{})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := codec.Verify(signed); err != nil {
		t.Fatalf("Verify within leeway failed: %v", err)
	}
}

func TestSignRejectsNonPositiveTTL(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Sign("user-1", 0, Extra{}); err == nil {
		t.Fatal("Sign accepted zero ttl")
	}
	if _, err := codec.Sign("user-1", -time.Minute, Extra{}); err == nil {
		t.Fatal("Sign accepted negative ttl")
	}
}
