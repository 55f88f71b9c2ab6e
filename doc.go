// Package goGuard provides stateless bearer-token authentication and
// rule-based authorization for HTTP APIs.
//
// A client authenticates once with a username and password through
// [Engine.Login] and receives a signed token carrying its identity and
// authorities. Every later request presents that token; [Engine.Verify]
// checks integrity and freshness, and [Engine.Authorize] evaluates the
// ordered route rule table against the verified principal.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build], and nothing is mutated after that point.
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([Principal], [SecurityContext], [LoginResult]). Flow
// orchestration, the login throttle and audit dispatch live under internal/.
// HTTP wiring is in the middleware package.
//
// # What this package must NOT do
//
//   - Keep per-token server state. There is no session store and no
//     revocation list; a token is valid until it expires.
//   - Log or audit passwords or tokens.
//   - Import any sub-package that re-imports goGuard (no import cycles).
package goGuard
