package goGuard

import "errors"

var (
	// ErrInvalidCredentials is the parent of every credential failure. It is
	// the only credential error callers should surface to clients.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownUser is returned when the directory has no such user.
	ErrUnknownUser = errors.New("unknown user")
	// ErrBadPassword is returned when the password does not match.
	ErrBadPassword = errors.New("bad password")
	// ErrAccountUnavailable is returned for disabled, locked or expired
	// accounts after the password has been verified.
	ErrAccountUnavailable = errors.New("account unavailable")

	// ErrUserNotFound is returned by a UserDirectory when no user matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenInvalid is the parent of every token verification failure.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrAccessDenied is returned when the rule table denies a request.
	ErrAccessDenied = errors.New("access denied")

	// ErrLoginRateLimited is returned when the login throttle refuses an attempt.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRateLimiterUnavailable is returned when the throttle backend fails.
	ErrRateLimiterUnavailable = errors.New("login rate limiter unavailable")
	// ErrDirectoryUnavailable is returned when the user directory fails for a
	// reason other than a missing user.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrEngineNotReady is returned when an Engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
