// Package rate implements the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys:
//   - <prefix>:login:u:<username>  failures per username
//   - <prefix>:login:ip:<ip>       failures per client IP (optional)
//
// A caller is refused once a counter reaches the configured maximum and
// admitted again when the window key expires.
//
// # What this package must NOT do
//
//   - Decide HTTP status codes or emit audit events.
//   - Be imported outside the goGuard module.
package rate
