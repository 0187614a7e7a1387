package apikey

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goiam "github.com/goiam-dev/goiam"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, "apikey"), mr
}

func testPrincipal() *goiam.Principal {
	return &goiam.Principal{
		SubjectID:   "svc-1",
		Email:       "robot@example.com",
		Role:        goiam.RoleRegular,
		Permissions: []string{"coffees.read"},
	}
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	raw, err := store.Generate(ctx, testPrincipal(), time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(raw, ".") {
		t.Fatalf("raw key %q is not id.secret shaped", raw)
	}

	principal, err := store.Verify(ctx, raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if principal == nil || principal.SubjectID != "svc-1" {
		t.Fatalf("principal = %+v", principal)
	}
	if principal.Email != "robot@example.com" || len(principal.Permissions) != 1 {
		t.Fatalf("principal fields lost: %+v", principal)
	}
}

func TestVerifyTamperedSecret(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	raw, err := store.Generate(ctx, testPrincipal(), time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	id, _, _ := strings.Cut(raw, ".")
	principal, err := store.Verify(ctx, id+".forged-secret")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if principal != nil {
		t.Fatalf("tampered key resolved to %+v", principal)
	}
}

func TestVerifyMalformedAndUnknown(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, raw := range []string{"", "no-dot", ".secret", "id.", "unknown-id.secret"} {
		principal, err := store.Verify(ctx, raw)
		if err != nil {
			t.Fatalf("Verify(%q) returned error: %v", raw, err)
		}
		if principal != nil {
			t.Fatalf("Verify(%q) resolved to %+v", raw, principal)
		}
	}
}

func TestRevoke(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	raw, err := store.Generate(ctx, testPrincipal(), time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	id, _, _ := strings.Cut(raw, ".")

	if err := store.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, id); err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}

	principal, err := store.Verify(ctx, raw)
	if err != nil || principal != nil {
		t.Fatalf("Verify after Revoke = (%+v, %v), want (nil, nil)", principal, err)
	}
}

func TestKeyExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	raw, err := store.Generate(ctx, testPrincipal(), time.Minute)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	principal, err := store.Verify(ctx, raw)
	if err != nil || principal != nil {
		t.Fatalf("Verify after expiry = (%+v, %v), want (nil, nil)", principal, err)
	}
}

func TestGenerateRequiresSubject(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Generate(context.Background(), nil, 0); err == nil {
		t.Fatal("Generate accepted nil principal")
	}
	if _, err := store.Generate(context.Background(), &goiam.Principal{}, 0); err == nil {
		t.Fatal("Generate accepted principal without subject id")
	}
}
