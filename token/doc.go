// Package token signs and verifies the compact signed tokens issued by
// goiam. A single Codec, built from one shared signing configuration,
// handles both access and refresh tokens; verification failures are
// classified into expiry, structural, and issuer/audience mismatches so the
// caller can collapse them correctly.
package token
