package goGuard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/rules"
)

// TokenTypeBearer is the token type reported in login responses.
const TokenTypeBearer = "Bearer"

// Engine authenticates credentials, issues and verifies bearer tokens and
// evaluates the authorization rule table. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	config Config

	tokens    *jwt.Manager
	table     *rules.Table
	directory UserDirectory
	verifier  PasswordVerifier
	dummyHash string

	limiter *rate.Limiter
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger

	now func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.Close()
	if dropped := e.audit.DroppedByType(); len(dropped) > 0 {
		attrs := make([]any, 0, 2*len(dropped))
		for eventType, n := range dropped {
			attrs = append(attrs, eventType, n)
		}
		e.logger.Warn("audit events dropped", attrs...)
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Metrics returns the engine's collectors, or nil when disabled.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsHandler serves the engine metrics, or 404 when disabled.
func (e *Engine) MetricsHandler() http.Handler {
	return e.metrics.Handler()
}

// Logger returns the logger the engine reports operational warnings to.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Rules returns a copy of the active rule table in priority order.
func (e *Engine) Rules() []rules.Rule {
	return e.table.Rules()
}

// TokenTTL is the configured bearer token lifetime.
func (e *Engine) TokenTTL() time.Duration {
	return e.tokens.TTL()
}

// Authenticate checks credentials against the user directory.
//
// Every credential failure is reported as an error wrapping
// [ErrInvalidCredentials]. The wrapped cause ([ErrUnknownUser],
// [ErrBadPassword], [ErrAccountUnavailable]) is for audit and tests only and
// must not reach clients.
func (e *Engine) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := flows.RunAuthenticate(ctx, creds.Username, creds.Password, e.authenticateDeps())
	if err != nil {
		return nil, err
	}
	return NewPrincipal(identity.Username, identity.Authorities), nil
}

// Login authenticates creds and issues a bearer token. When the login
// throttle is enabled, refused attempts return [ErrLoginRateLimited] and a
// throttle backend failure returns [ErrRateLimiterUnavailable].
func (e *Engine) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res, err := flows.RunLogin(ctx, creds.Username, creds.Password, e.loginDeps())
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Principal: NewPrincipal(res.Identity.Username, res.Identity.Authorities),
		Token:     res.Token,
		TokenType: TokenTypeBearer,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// IssueToken signs a bearer token for p at the engine's current time.
func (e *Engine) IssueToken(p *Principal) (string, time.Time, error) {
	if e == nil || e.tokens == nil {
		return "", time.Time{}, ErrEngineNotReady
	}
	if p == nil {
		return "", time.Time{}, errors.New("principal required")
	}
	return e.tokens.Issue(p.Username(), p.authorities, e.now())
}

// Verify checks a bearer token and returns its principal. Failures wrap
// [ErrTokenInvalid] and one of [jwt.ErrTokenMalformed],
// [jwt.ErrTokenSignatureInvalid] or [jwt.ErrTokenExpired].
func (e *Engine) Verify(ctx context.Context, token string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := flows.RunVerify(ctx, token, e.verifyDeps())
	if err != nil {
		return nil, err
	}
	return NewPrincipal(identity.Username, identity.Authorities), nil
}

// Authorize evaluates the rule table for one request. Denials are audited.
func (e *Engine) Authorize(ctx context.Context, method, path string, sc SecurityContext) rules.Decision {
	decision := e.table.Authorize(method, path, sc.Authenticated, sc.authorities())
	e.metrics.incDecision(decision.Allowed)

	if !decision.Allowed {
		e.emitAudit(ctx, auditEventAccessDenied, false, sc.Principal.Username(), auditRoute{method: method, path: path}, ErrAccessDenied, func() map[string]string {
			return map[string]string{
				"reason":      decision.Reason,
				"requirement": decision.Requirement.String(),
				"rule":        ruleLabel(decision),
			}
		})
	}
	return decision
}

func ruleLabel(d rules.Decision) string {
	if d.Default() {
		return "default"
	}
	return strconv.Itoa(d.RuleIndex)
}

/*
====================================
FLOW WIRING
====================================
*/

func (e *Engine) authenticateDeps() flows.AuthenticateDeps {
	deps := flows.AuthenticateDeps{
		LookupUser: func(ctx context.Context, username string) (flows.UserRecord, error) {
			if e.directory == nil {
				return flows.UserRecord{}, ErrEngineNotReady
			}
			u, err := e.directory.LookupUser(ctx, username)
			if err != nil {
				return flows.UserRecord{}, err
			}
			return flows.UserRecord{
				Username:     u.Username,
				PasswordHash: u.PasswordHash,
				Authorities:  u.Authorities,
				Status:       uint8(u.Status),
			}, nil
		},
		AccountStatusError: func(status uint8) error {
			if AccountStatus(status) == AccountActive {
				return nil
			}
			return ErrAccountUnavailable
		},
		DummyHash:          e.dummyHash,
		MaxCredentialBytes: e.config.Security.MaxCredentialBytes,
		Warn:               e.logger.Warn,
		Errors: flows.AuthenticateErrors{
			EngineNotReady:       ErrEngineNotReady,
			InvalidCredentials:   ErrInvalidCredentials,
			UnknownUser:          ErrUnknownUser,
			BadPassword:          ErrBadPassword,
			AccountUnavailable:   ErrAccountUnavailable,
			UserNotFound:         ErrUserNotFound,
			DirectoryUnavailable: ErrDirectoryUnavailable,
		},
	}
	if e.verifier != nil {
		deps.VerifyPassword = e.verifier.Verify
	}
	return deps
}

func (e *Engine) loginDeps() flows.LoginDeps {
	deps := flows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		Authenticate: func(ctx context.Context, username, password string) (*flows.Identity, error) {
			return flows.RunAuthenticate(ctx, username, password, e.authenticateDeps())
		},
		IssueToken: func(id flows.Identity) (string, time.Time, error) {
			return e.tokens.Issue(id.Username, id.Authorities, e.now())
		},
		MapRateError: mapRateError,
		MetricInc:    e.metrics.incLogin,
		EmitAudit: func(ctx context.Context, eventType string, success bool, username string, err error, md func() map[string]string) {
			e.emitAudit(ctx, eventType, success, username, auditRoute{}, err, md)
		},
		Warn: e.logger.Warn,
		Metrics: flows.LoginMetrics{
			Success:     resultSuccess,
			Failure:     resultFailure,
			RateLimited: resultRateLimited,
			Error:       resultError,
		},
		Events: flows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:         ErrEngineNotReady,
			InvalidCredentials:     ErrInvalidCredentials,
			LoginRateLimited:       ErrLoginRateLimited,
			RateLimiterUnavailable: ErrRateLimiterUnavailable,
		},
	}
	if e.tokens == nil {
		deps.IssueToken = nil
	}
	if e.limiter != nil {
		deps.CheckLoginRate = e.limiter.CheckLogin
		deps.IncrementLoginRate = e.limiter.IncrementLogin
		deps.ResetLoginRate = e.limiter.ResetLogin
	}
	return deps
}

func (e *Engine) verifyDeps() flows.VerifyDeps {
	deps := flows.VerifyDeps{
		Now: e.now,
		TokenKind: func(err error) string {
			return jwt.KindOf(err).String()
		},
		Observe: e.metrics.observeVerify,
		EmitAudit: func(ctx context.Context, eventType string, success bool, username string, err error, md func() map[string]string) {
			e.emitAudit(ctx, eventType, success, username, auditRoute{}, err, md)
		},
		Metrics: flows.VerifyMetrics{
			Success: resultSuccess,
			Failure: resultFailure,
		},
		Events: flows.VerifyEvents{
			TokenRejected: auditEventTokenRejected,
		},
		Errors: flows.VerifyErrors{
			EngineNotReady: ErrEngineNotReady,
			TokenInvalid:   ErrTokenInvalid,
		},
	}
	if e.tokens != nil {
		deps.ParseToken = func(token string, now time.Time) (*flows.Identity, error) {
			claims, err := e.tokens.Verify(token, now)
			if err != nil {
				return nil, err
			}
			return &flows.Identity{Username: claims.Subject, Authorities: claims.Authorities}, nil
		}
	}
	return deps
}

func mapRateError(err error) error {
	switch {
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrRateLimiterUnavailable, err)
	}
}
