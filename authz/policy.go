package authz

import (
	"context"
	"fmt"
	"strings"

	goiam "github.com/goiam-dev/goiam"
)

// Policy is a named authorization rule attached to a route. The name is
// the policy's identity in the [Registry]; the concrete type may carry
// parameters for its handler.
type Policy interface {
	Name() string
}

// Handler decides whether principal satisfies policy. A non-nil error is
// a rejection; its message surfaces to the caller inside ErrForbidden.
type Handler func(ctx context.Context, policy Policy, principal *goiam.Principal) error

// EmailDomainPolicy admits only principals whose email belongs to Domain.
type EmailDomainPolicy struct {
	Domain string
}

// Name implements Policy.
func (EmailDomainPolicy) Name() string { return "email_domain" }

// EmailDomainHandler is the handler for [EmailDomainPolicy].
func EmailDomainHandler(_ context.Context, policy Policy, principal *goiam.Principal) error {
	p, ok := policy.(EmailDomainPolicy)
	if !ok {
		return fmt.Errorf("email_domain handler got %T", policy)
	}
	if principal == nil || !strings.HasSuffix(principal.Email, "@"+p.Domain) {
		return fmt.Errorf("email not in domain %s", p.Domain)
	}
	return nil
}
