package flows

import (
	"context"
	"errors"
	"time"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// LoginMetrics carries metric label values used by the login flow.
type LoginMetrics struct {
	Success     string
	Failure     string
	RateLimited string
	Error       string
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady         error
	InvalidCredentials     error
	LoginRateLimited       error
	RateLimiterUnavailable error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	Authenticate func(context.Context, string, string) (*Identity, error)
	IssueToken   func(Identity) (string, time.Time, error)

	// Throttle hooks are optional. MapRateError translates limiter errors
	// into LoginErrors values.
	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string) error
	MapRateError       func(error) error

	MetricInc func(string)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin authenticates credentials and issues a bearer token.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(string) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MapRateError == nil {
		deps.MapRateError = func(err error) error { return err }
	}
	if deps.Authenticate == nil || deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, username, ip); err != nil {
			mapped := deps.MapRateError(err)
			if errors.Is(mapped, deps.Errors.LoginRateLimited) {
				deps.MetricInc(deps.Metrics.RateLimited)
				deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, username, mapped, nil)
			} else {
				deps.MetricInc(deps.Metrics.Error)
				deps.Warn("goGuard: login throttle check failed", "error", err)
			}
			return nil, mapped
		}
	}

	identity, err := deps.Authenticate(ctx, username, password)
	if err != nil {
		if !errors.Is(err, deps.Errors.InvalidCredentials) {
			deps.MetricInc(deps.Metrics.Error)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, err, nil)
			return nil, err
		}

		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, err, nil)
		if deps.IncrementLoginRate != nil {
			if incErr := deps.IncrementLoginRate(ctx, username, ip); incErr != nil {
				deps.Warn("goGuard: login throttle increment failed", "error", incErr)
			}
		}
		return nil, err
	}

	if deps.ResetLoginRate != nil {
		if resetErr := deps.ResetLoginRate(ctx, username); resetErr != nil {
			deps.Warn("goGuard: login throttle reset failed", "error", resetErr)
		}
	}

	token, expiresAt, err := deps.IssueToken(*identity)
	if err != nil {
		deps.MetricInc(deps.Metrics.Error)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, identity.Username, nil, func() map[string]string {
		return map[string]string{
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
		}
	})

	return &LoginResult{
		Identity:  *identity,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
