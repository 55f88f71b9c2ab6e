// Package server wires the demo students service: public pages, the login
// endpoint, the students API and metrics, all behind goGuard middleware.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const indexPage = `<!doctype html>
<html><head><title>goGuard demo</title><link rel="stylesheet" href="/css/site.css"></head>
<body><h1>goGuard demo</h1><p>POST /login to obtain a bearer token.</p></body></html>
`

// Options configures NewHandler.
type Options struct {
	Engine   *goGuard.Engine
	Students *StudentStore
	Logger   *slog.Logger
}

// NewHandler returns the complete HTTP handler of the demo service.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	students := opts.Students
	if students == nil {
		students = NewStudentStore(DemoStudents()...)
	}

	login := middleware.LoginHandler(opts.Engine)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", servePage)
	mux.HandleFunc("GET /index", servePage)
	mux.HandleFunc("GET /css/{file}", serveAsset("text/css", "body { font-family: sans-serif; }\n"))
	mux.HandleFunc("GET /js/{file}", serveAsset("text/javascript", "// goGuard demo\n"))
	mux.Handle("/login", login)
	mux.Handle("GET /metrics", opts.Engine.MetricsHandler())

	h := studentHandlers{store: students}
	mux.HandleFunc("GET /students", h.list)
	mux.HandleFunc("GET /students/{id}", h.get)
	mux.HandleFunc("POST /students", h.create)
	mux.HandleFunc("PUT /students/{id}", h.update)
	mux.HandleFunc("DELETE /students/{id}", h.delete)

	// POST /login bypasses token verification; a stale Authorization header
	// must not block a fresh login.
	root := http.NewServeMux()
	root.Handle("POST /login", login)
	root.Handle("/", middleware.Chain(mux,
		middleware.VerifyToken(opts.Engine),
		middleware.Authorize(opts.Engine),
	))
	return otelhttp.NewHandler(logRequests(logger, root), "goguard.http")
}

func servePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

func serveAsset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", w.Header().Get(middleware.HeaderRequestID)),
		)
	})
}
