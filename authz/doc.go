// Package authz evaluates authorization requirements against the
// authenticated principal: role membership, permission subsets, and named
// pluggable policies.
//
// Policies are resolved through an explicit [Registry] built at process
// start; nothing self-registers. A route declares its requirements once,
// at registration time, and the [Evaluator] applies them per request.
package authz
