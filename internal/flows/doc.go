// Package flows contains pure-function orchestrators for Engine operations.
//
// Each flow function (RunAuthenticate, RunLogin, RunVerify) accepts a typed
// dependency struct of function fields and returns results without side
// effects beyond those dependencies. The Engine builds the structs and stays
// thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the user directory, password verifier, token
// codec, login throttle, audit dispatcher and metrics. They do NOT own any
// of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGuard (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
