package authz

import (
	"context"
	"fmt"
	"sync"

	goiam "github.com/goiam-dev/goiam"
)

// Requirements is the authorization contract a route declares at
// registration time. Every zero-valued field passes unconditionally.
type Requirements struct {
	// Roles admits principals whose role is any of the listed values.
	Roles []goiam.Role
	// Permissions admits principals carrying every listed permission.
	Permissions []goiam.Permission
	// Policies are evaluated through the registry; all must pass.
	Policies []Policy
}

// Empty reports whether the requirements impose no checks.
func (r Requirements) Empty() bool {
	return len(r.Roles) == 0 && len(r.Permissions) == 0 && len(r.Policies) == 0
}

// Evaluator applies [Requirements] to a principal.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an Evaluator resolving policies through registry.
// A nil registry behaves like an empty one.
func NewEvaluator(registry *Registry) *Evaluator {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Evaluator{registry: registry}
}

// Authorize checks principal against reqs. Every rejection matches
// [goiam.ErrForbidden] via errors.Is; for policy rejections the message of
// the first failing policy (in declaration order) is carried along.
//
// A declared policy with no registered handler is skipped: that is a
// configuration gap to catch in tests, not a runtime denial.
func (e *Evaluator) Authorize(ctx context.Context, principal *goiam.Principal, reqs Requirements) error {
	if reqs.Empty() {
		return nil
	}
	if principal == nil {
		return fmt.Errorf("%w: no principal", goiam.ErrForbidden)
	}

	if len(reqs.Roles) > 0 && !roleAllowed(principal.Role, reqs.Roles) {
		return fmt.Errorf("%w: role %q not allowed", goiam.ErrForbidden, principal.Role)
	}

	for _, perm := range reqs.Permissions {
		if !principal.HasPermission(perm) {
			return fmt.Errorf("%w: missing permission %q", goiam.ErrForbidden, perm)
		}
	}

	return e.evaluatePolicies(ctx, principal, reqs.Policies)
}

func roleAllowed(role goiam.Role, allowed []goiam.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// evaluatePolicies runs every resolved handler concurrently and requires
// all of them to pass.
func (e *Evaluator) evaluatePolicies(ctx context.Context, principal *goiam.Principal, policies []Policy) error {
	if len(policies) == 0 {
		return nil
	}

	results := make([]error, len(policies))
	var wg sync.WaitGroup
	for i, policy := range policies {
		handler, ok := e.registry.Get(policy.Name())
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, policy Policy, handler Handler) {
			defer wg.Done()
			results[i] = handler(ctx, policy, principal)
		}(i, policy, handler)
	}
	wg.Wait()

	for _, err := range results {
		if err != nil {
			return fmt.Errorf("%w: %v", goiam.ErrForbidden, err)
		}
	}
	return nil
}
