package guard

import (
	"context"

	goiam "github.com/goiam-dev/goiam"
)

type principalContextKey struct{}

// NewContext attaches the authenticated principal to ctx.
func NewContext(ctx context.Context, principal *goiam.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// FromContext returns the principal attached by NewContext. The second
// return is false for anonymous requests, including those admitted by
// AuthTypeNone.
func FromContext(ctx context.Context) (*goiam.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*goiam.Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}
