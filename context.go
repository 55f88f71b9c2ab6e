package goGuard

import "context"

type clientIPContextKey struct{}
type requestIDContextKey struct{}
type securityContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP login throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestID attaches a request identifier carried on audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// WithSecurityContext stores the request's security context.
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey{}, sc)
}

// SecurityContextFromContext returns the stored security context. The
// second result is false when none was set; the first is then anonymous.
func SecurityContextFromContext(ctx context.Context) (SecurityContext, bool) {
	if ctx == nil {
		return Anonymous(), false
	}
	sc, ok := ctx.Value(securityContextKey{}).(SecurityContext)
	return sc, ok
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	sc, ok := SecurityContextFromContext(ctx)
	if !ok || !sc.Authenticated || sc.Principal == nil {
		return nil, false
	}
	return sc.Principal, true
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
