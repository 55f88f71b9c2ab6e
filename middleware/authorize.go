package middleware

import (
	"net/http"

	"github.com/MrEthical07/goGuard"
)

// Authorize enforces the engine's rule table. It reads the security context
// set by [VerifyToken]; without one the request is treated as anonymous.
// Denied requests get 403.
func Authorize(engine *goGuard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, goGuard.ErrEngineNotReady)
				return
			}

			sc, _ := goGuard.SecurityContextFromContext(r.Context())
			decision := engine.Authorize(r.Context(), r.Method, r.URL.Path, sc)
			if !decision.Allowed {
				writeError(w, goGuard.ErrAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h so that the first middleware is outermost:
// Chain(h, a, b) serves requests through a, then b, then h.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
