package flows

import (
	"context"
	"time"
)

// VerifyMetrics carries metric label values used by the verify flow.
type VerifyMetrics struct {
	Success string
	Failure string
}

// VerifyEvents carries audit event names used by the verify flow.
type VerifyEvents struct {
	TokenRejected string
}

// VerifyErrors carries host-level sentinel errors used by the verify flow.
type VerifyErrors struct {
	EngineNotReady error
	TokenInvalid   error
}

// VerifyDeps captures bearer token verification dependencies.
type VerifyDeps struct {
	ParseToken func(string, time.Time) (*Identity, error)
	Now        func() time.Time
	// TokenKind names the failure class for audit metadata.
	TokenKind func(error) string

	Observe   func(result string, elapsed time.Duration)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics VerifyMetrics
	Events  VerifyEvents
	Errors  VerifyErrors
}

// RunVerify validates a token and returns the identity it carries. Failures
// wrap both Errors.TokenInvalid and the codec's own error.
func RunVerify(ctx context.Context, token string, deps VerifyDeps) (*Identity, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Observe == nil {
		deps.Observe = func(string, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.TokenKind == nil {
		deps.TokenKind = func(error) string { return "" }
	}
	if deps.ParseToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := time.Now()
	identity, err := deps.ParseToken(token, deps.Now())
	elapsed := time.Since(start)

	if err != nil {
		deps.Observe(deps.Metrics.Failure, elapsed)
		wrapped := wrapTokenError(deps.Errors.TokenInvalid, err)
		deps.EmitAudit(ctx, deps.Events.TokenRejected, false, "", wrapped, func() map[string]string {
			return map[string]string{"reason": deps.TokenKind(err)}
		})
		return nil, wrapped
	}

	deps.Observe(deps.Metrics.Success, elapsed)
	return identity, nil
}

func wrapTokenError(parent, cause error) error {
	if parent == nil {
		return cause
	}
	return &tokenError{parent: parent, cause: cause}
}

type tokenError struct {
	parent error
	cause  error
}

func (e *tokenError) Error() string {
	return e.parent.Error() + ": " + e.cause.Error()
}

func (e *tokenError) Unwrap() []error {
	return []error{e.parent, e.cause}
}
