package flows

import (
	"context"
	"errors"
	"fmt"
)

// UserRecord is the flow-local user model.
type UserRecord struct {
	Username     string
	PasswordHash string
	Authorities  []string
	Status       uint8
}

// Identity is an authenticated subject and its authorities.
type Identity struct {
	Username    string
	Authorities []string
}

// AuthenticateErrors carries host-level sentinel errors.
type AuthenticateErrors struct {
	EngineNotReady       error
	InvalidCredentials   error
	UnknownUser          error
	BadPassword          error
	AccountUnavailable   error
	UserNotFound         error
	DirectoryUnavailable error
}

// AuthenticateDeps captures credential verification dependencies.
type AuthenticateDeps struct {
	LookupUser         func(context.Context, string) (UserRecord, error)
	VerifyPassword     func(password, encodedHash string) (bool, error)
	AccountStatusError func(status uint8) error
	// DummyHash is verified against for unknown users when non-empty.
	DummyHash          string
	MaxCredentialBytes int
	Warn               func(string, ...any)

	Errors AuthenticateErrors
}

// RunAuthenticate checks username and password against the directory.
//
// Every credential failure wraps Errors.InvalidCredentials together with the
// specific cause. Directory failures other than "not found" wrap
// Errors.DirectoryUnavailable and are never reported as credential errors.
func RunAuthenticate(ctx context.Context, username, password string, deps AuthenticateDeps) (*Identity, error) {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.LookupUser == nil || deps.VerifyPassword == nil || deps.AccountStatusError == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if username == "" || password == "" ||
		(deps.MaxCredentialBytes > 0 && (len(username) > deps.MaxCredentialBytes || len(password) > deps.MaxCredentialBytes)) {
		return nil, credentialError(deps.Errors, deps.Errors.BadPassword)
	}

	user, err := deps.LookupUser(ctx, username)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			if deps.DummyHash != "" {
				_, _ = deps.VerifyPassword(password, deps.DummyHash)
			}
			return nil, credentialError(deps.Errors, deps.Errors.UnknownUser)
		}
		return nil, fmt.Errorf("%w: %v", deps.Errors.DirectoryUnavailable, err)
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// An unreadable stored hash cannot be matched; the caller still only
		// sees invalid credentials.
		deps.Warn("goGuard: stored password hash could not be verified", "username", username, "error", err)
		return nil, credentialError(deps.Errors, deps.Errors.BadPassword)
	}
	if !ok {
		return nil, credentialError(deps.Errors, deps.Errors.BadPassword)
	}

	if statusErr := deps.AccountStatusError(user.Status); statusErr != nil {
		return nil, credentialError(deps.Errors, statusErr)
	}

	return &Identity{
		Username:    user.Username,
		Authorities: append([]string(nil), user.Authorities...),
	}, nil
}

func credentialError(errs AuthenticateErrors, cause error) error {
	return fmt.Errorf("%w: %w", errs.InvalidCredentials, cause)
}
