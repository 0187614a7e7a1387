// Package middleware adapts the guard chain and the authorization
// evaluator to gin. A route declares its full auth contract once, as a
// [RouteConfig] resolved at registration time; nothing is discovered per
// request.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	goiam "github.com/goiam-dev/goiam"
	"github.com/goiam-dev/goiam/authz"
	"github.com/goiam-dev/goiam/guard"
)

// RouteConfig is the per-route auth contract. Zero-valued fields fall back
// to the defaults: bearer-only authentication, no authorization checks.
type RouteConfig struct {
	AuthTypes   []guard.AuthType
	Roles       []goiam.Role
	Permissions []goiam.Permission
	Policies    []authz.Policy
}

// Auth builds the gin middleware for one route from its RouteConfig.
func Auth(chain *guard.Chain, evaluator *authz.Evaluator, cfg RouteConfig) gin.HandlerFunc {
	reqs := authz.Requirements{
		Roles:       cfg.Roles,
		Permissions: cfg.Permissions,
		Policies:    cfg.Policies,
	}

	return func(c *gin.Context) {
		principal, err := chain.Authenticate(c.Request, cfg.AuthTypes)
		if err != nil {
			if errors.Is(err, goiam.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			// infrastructure failure, not a credential problem
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if principal != nil {
			c.Request = c.Request.WithContext(guard.NewContext(c.Request.Context(), principal))
		}

		if err := evaluator.Authorize(c.Request.Context(), principal, reqs); err != nil {
			if errors.Is(err, goiam.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Next()
	}
}
