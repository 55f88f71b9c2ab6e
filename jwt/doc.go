// Package jwt issues and verifies the signed bearer tokens used by goGuard.
//
// Tokens are compact HMAC-signed JWTs carrying the subject, the granted
// authorities, and issued-at / expiry timestamps. Verification recomputes the
// MAC before any claim is decoded, so a token altered anywhere fails with
// [ErrTokenSignatureInvalid] rather than a parse error.
//
// # What this package must NOT do
//
//   - Accept asymmetric or "none" algorithms.
//   - Read the wall clock: callers pass the instant to issue or verify at.
//   - Keep per-token state (there is no revocation list).
package jwt
