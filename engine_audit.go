package goGuard

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/jwt"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventTokenRejected    = "token_rejected"
	auditEventAccessDenied     = "access_denied"
)

// AuditErrorCode is the coarse error classification recorded on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrTokenMalformed     AuditErrorCode = "token_malformed"
	auditErrTokenSignature     AuditErrorCode = "token_invalid_signature"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrAccessDenied       AuditErrorCode = "access_denied"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// auditRoute carries the request line for authorization events.
type auditRoute struct {
	method string
	path   string
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	route auditRoute,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		Username:  username,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Method:    route.method,
		Path:      route.path,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return auditErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, ErrTokenInvalid):
		return auditErrTokenMalformed
	case errors.Is(err, ErrAccessDenied):
		return auditErrAccessDenied
	case errors.Is(err, ErrDirectoryUnavailable),
		errors.Is(err, ErrRateLimiterUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
