// Package internal holds the parts of goGuard that are private to the module.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for authenticate, login and verify
//   - rate: Redis-backed login attempt counters
//   - server: the demo students service used by cmd/goguard
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGuard API.
//   - Be imported by any package outside the goGuard module.
package internal
