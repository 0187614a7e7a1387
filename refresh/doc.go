// Package refresh persists, per user, the identifier of the single
// currently-valid refresh token. Issuing a new token pair overwrites the
// record; redeeming consumes it atomically. A redemption attempt whose id
// does not match the stored one (or finds no record at all) is a reuse
// signal: the token was already rotated or invalidated, which is
// indistinguishable from theft.
package refresh
