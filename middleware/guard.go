package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/goGuard"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-ID"

// VerifyToken establishes the request's security context.
//
// A request without a bearer token passes through as anonymous. A request
// whose bearer token fails verification is rejected with 403 and the wrapped
// handler is not called.
func VerifyToken(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, goGuard.ErrEngineNotReady)
				return
			}

			ctx := withRequestContext(w, r)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r.WithContext(goGuard.WithSecurityContext(ctx, goGuard.Anonymous())))
				return
			}

			principal, err := engine.Verify(ctx, token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx = goGuard.WithSecurityContext(ctx, goGuard.Authenticated(principal))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withRequestContext attaches the client IP and a request id. An existing id
// in the context or the X-Request-ID header is kept.
func withRequestContext(w http.ResponseWriter, r *http.Request) context.Context {
	ctx := r.Context()

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ctx = goGuard.WithClientIP(ctx, host)

	id := goGuard.RequestIDFromContext(ctx)
	if id == "" {
		id = strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx = goGuard.WithRequestID(ctx, id)
	}
	w.Header().Set(HeaderRequestID, id)

	return ctx
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
