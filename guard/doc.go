// Package guard authenticates incoming HTTP requests against an ordered
// list of strategies.
//
// A route declares which authentication types it accepts (bearer token,
// API key, or none). The chain tries the declared strategies in order and
// stops at the first success, attaching the resulting principal to the
// request context. When every strategy fails the error of the last one
// tried is returned, so the caller sees the most specific denial.
//
// The zero configuration accepts bearer tokens only.
package guard
