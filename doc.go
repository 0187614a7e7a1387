// Package goiam provides a request authentication and authorization core:
// signed access/refresh token pairs, single-use refresh-token rotation with
// reuse detection, a multi-strategy per-route authentication guard chain, and
// policy-based authorization.
//
// The package is designed for concurrent server workloads: Service and the
// guard/authorization types are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goiam is the public surface. It exposes [Service], [Builder], [Config],
// sentinel errors, and value types ([Principal], [TokenPair]). Tokens are
// signed and verified by package token, refresh-token state lives in package
// refresh (Redis), the guard chain in package guard, and policy/role/
// permission evaluation in package authz.
//
// # What this package must NOT do
//
//   - Persist users. Callers supply a [UserStore]; goiam only reads and
//     writes through that interface.
//   - Manage server-side sessions. The only per-user server state is the
//     current refresh-token id held by the refresh registry.
//   - Mask infrastructure failures as authorization failures. Store and
//     Redis errors propagate; only token verification and reuse signals
//     collapse into the error taxonomy.
//
// # Security contract
//
// A refresh token is redeemable at most once. Redeeming an already-rotated
// or unknown refresh-token id is indistinguishable from theft and surfaces
// as [ErrAccessDenied], never as the generic [ErrInvalidRefreshToken].
package goiam
