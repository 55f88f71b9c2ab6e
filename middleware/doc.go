// Package middleware exposes the HTTP surface of goGuard.Engine.
//
// # Handlers
//
//   - [VerifyToken] turns an optional bearer token into a request security
//     context. No token means anonymous; a bad token is rejected with 403.
//   - [Authorize] evaluates the engine's rule table against the security
//     context and rejects denied requests with 403.
//   - [LoginHandler] serves POST /login and returns the token in the
//     Authorization response header.
//   - [Chain] composes them explicitly:
//     Chain(mux, VerifyToken(e), Authorize(e)).
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself. Error bodies are fixed strings
// chosen by [StatusFor]; causes never reach the client.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the user directory (Engine handles I/O).
//   - Match rule patterns itself (delegates to Engine.Authorize).
package middleware
