package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	goiam "github.com/goiam-dev/goiam"
	"github.com/goiam-dev/goiam/authz"
	"github.com/goiam-dev/goiam/guard"
	"github.com/goiam-dev/goiam/token"
)

func newTestRouter(t *testing.T) (*gin.Engine, *token.Codec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec(token.Config{
		Secret:   []byte("test-secret-test-secret"),
		Issuer:   "goiam-test",
		Audience: "goiam-test",
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	chain := guard.NewChain(codec, nil)

	registry := authz.NewRegistry()
	registry.Register(authz.EmailDomainPolicy{}.Name(), authz.EmailDomainHandler)
	evaluator := authz.NewEvaluator(registry)

	router := gin.New()
	router.GET("/me",
		Auth(chain, evaluator, RouteConfig{}),
		func(c *gin.Context) {
			principal, _ := guard.FromContext(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"subject": principal.SubjectID})
		})
	router.GET("/admin",
		Auth(chain, evaluator, RouteConfig{Roles: []goiam.Role{goiam.RoleAdmin}}),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/contributors",
		Auth(chain, evaluator, RouteConfig{
			Policies: []authz.Policy{authz.EmailDomainPolicy{Domain: "example.com"}},
		}),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/public",
		Auth(chain, evaluator, RouteConfig{AuthTypes: []guard.AuthType{guard.AuthTypeNone}}),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	return router, codec
}

func signAccess(t *testing.T, codec *token.Codec, email, role string) string {
	t.Helper()

	signed, err := codec.Sign("user-1", time.Minute, token.Extra{Email: email, Role: role})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return signed
}

func get(router *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", path, nil)
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := get(router, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthAdmitsValidToken(t *testing.T) {
	router, codec := newTestRouter(t)

	w := get(router, "/me", signAccess(t, codec, "alice@example.com", "regular"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
}

func TestAuthEnforcesRole(t *testing.T) {
	router, codec := newTestRouter(t)

	if w := get(router, "/admin", signAccess(t, codec, "alice@example.com", "regular")); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if w := get(router, "/admin", signAccess(t, codec, "root@example.com", "admin")); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthEnforcesPolicy(t *testing.T) {
	router, codec := newTestRouter(t)

	if w := get(router, "/contributors", signAccess(t, codec, "alice@example.com", "regular")); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w := get(router, "/contributors", signAccess(t, codec, "mallory@evil.test", "regular")); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

type failingKeyStore struct{}

func (failingKeyStore) Verify(context.Context, string) (*goiam.Principal, error) {
	return nil, errors.New("redis: connection refused")
}

func TestAuthStoreFailureIsNotUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec(token.Config{Secret: []byte("test-secret-test-secret")})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	chain := guard.NewChain(codec, failingKeyStore{})

	router := gin.New()
	router.GET("/machine",
		Auth(chain, authz.NewEvaluator(nil), RouteConfig{
			AuthTypes: []guard.AuthType{guard.AuthTypeAPIKey},
		}),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	r := httptest.NewRequest("GET", "/machine", nil)
	r.Header.Set("X-Api-Key", "id.secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for a store failure", w.Code)
	}
}

func TestAuthAllowsAnonymousRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	if w := get(router, "/public", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
