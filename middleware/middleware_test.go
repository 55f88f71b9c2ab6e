package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/directory"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/rules"
)

func newTestEngine(t *testing.T, rs ...rules.Rule) *goGuard.Engine {
	t.Helper()

	hasher, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	dir, err := directory.NewDemoMemory(hasher)
	if err != nil {
		t.Fatalf("NewDemoMemory failed: %v", err)
	}

	cfg := goGuard.DefaultConfig()
	cfg.JWT.Secret = goGuard.Secret("0123456789abcdef0123456789abcdef")
	cfg.Password.Scheme = string(password.SchemeBcrypt)
	cfg.Password.BcryptCost = 4

	e, err := goGuard.New().
		WithConfig(cfg).
		WithUserDirectory(dir).
		WithRules(rs...).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func login(t *testing.T, h http.Handler, username, pw string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": pw})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginHandlerSuccess(t *testing.T) {
	e := newTestEngine(t)
	rec := login(t, LoginHandler(e), "linda", "password")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	auth := rec.Header().Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", auth)
	}

	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.TokenType != "Bearer" || "Bearer "+resp.AccessToken != auth {
		t.Fatalf("body and header disagree: %+v vs %q", resp, auth)
	}
	if until := time.Until(resp.ExpiresAt); until <= 0 || until > 2*time.Hour {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestLoginHandlerFormFallback(t *testing.T) {
	e := newTestEngine(t)
	form := url.Values{"username": {"tom"}, "password": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	LoginHandler(e).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginHandlerFailuresAreIdentical(t *testing.T) {
	e := newTestEngine(t)
	h := LoginHandler(e)

	unknown := login(t, h, "ghost", "password")
	badPass := login(t, h, "linda", "wrong")

	for _, rec := range []*httptest.ResponseRecorder{unknown, badPass} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("Authorization") != "" {
			t.Fatalf("failure must not carry a token")
		}
	}
	if !bytes.Equal(unknown.Body.Bytes(), badPass.Body.Bytes()) {
		t.Fatalf("responses differ: %q vs %q", unknown.Body, badPass.Body)
	}
	if strings.TrimSpace(unknown.Body.String()) != `{"error":"invalid credentials"}` {
		t.Fatalf("unexpected body %q", unknown.Body)
	}
}

func TestLoginHandlerBadRequests(t *testing.T) {
	e := newTestEngine(t)
	h := LoginHandler(e)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow, got %d", rec.Code)
	}
}

func securityContextProbe(got *goGuard.SecurityContext, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got, _ = goGuard.SecurityContextFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestVerifyToken(t *testing.T) {
	e := newTestEngine(t)
	token := strings.TrimPrefix(login(t, LoginHandler(e), "tom", "password").Header().Get("Authorization"), "Bearer ")

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
		wantAuth   bool
	}{
		{"no header", "", http.StatusNoContent, true, false},
		{"basic scheme", "Basic dG9tOnBhc3N3b3Jk", http.StatusNoContent, true, false},
		{"valid token", "Bearer " + token, http.StatusNoContent, true, true},
		{"garbage token", "Bearer garbage", http.StatusForbidden, false, false},
		{"tampered token", "Bearer " + token + "x", http.StatusForbidden, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sc goGuard.SecurityContext
			called := false
			h := VerifyToken(e)(securityContextProbe(&sc, &called))

			req := httptest.NewRequest(http.MethodGet, "/students", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus || called != tt.wantCalled {
				t.Fatalf("expected %d/called=%v, got %d/called=%v", tt.wantStatus, tt.wantCalled, rec.Code, called)
			}
			if called && sc.Authenticated != tt.wantAuth {
				t.Fatalf("expected authenticated=%v, got %+v", tt.wantAuth, sc)
			}
			if tt.wantAuth && sc.Principal.Username() != "tom" {
				t.Fatalf("unexpected principal %q", sc.Principal.Username())
			}
			if rec.Code == http.StatusForbidden &&
				strings.TrimSpace(rec.Body.String()) != `{"error":"invalid or expired token"}` {
				t.Fatalf("unexpected body %q", rec.Body)
			}
		})
	}
}

func TestVerifyTokenHonoursRequestID(t *testing.T) {
	e := newTestEngine(t)
	var seen string
	h := VerifyToken(e)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = goGuard.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get(HeaderRequestID))
	}
}

func TestAuthorizeChain(t *testing.T) {
	e := newTestEngine(t,
		rules.Rule{Pattern: "/", Requirement: rules.PermitAll()},
		rules.Rule{Method: http.MethodDelete, Pattern: "/students/**", Requirement: rules.HasRole("ADMIN")},
		rules.Rule{Method: http.MethodGet, Pattern: "/students/**", Requirement: rules.HasAnyRole("ADMIN", "ADMINTRAINEE")},
	)
	lh := LoginHandler(e)
	tom := login(t, lh, "tom", "password").Header().Get("Authorization")
	linda := login(t, lh, "linda", "password").Header().Get("Authorization")

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Chain(ok, VerifyToken(e), Authorize(e))

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"public root", http.MethodGet, "/", "", http.StatusOK},
		{"anonymous protected", http.MethodGet, "/students/1", "", http.StatusForbidden},
		{"trainee read", http.MethodGet, "/students/1", tom, http.StatusOK},
		{"trainee delete", http.MethodDelete, "/students/1", tom, http.StatusForbidden},
		{"admin delete", http.MethodDelete, "/students/1", linda, http.StatusOK},
		{"default authenticated", http.MethodGet, "/courses", tom, http.StatusOK},
		{"default anonymous", http.MethodGet, "/courses", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestAuthorizeWithoutVerifyTokenIsAnonymous(t *testing.T) {
	e := newTestEngine(t)
	h := Authorize(e)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,h" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{goGuard.ErrInvalidCredentials, http.StatusUnauthorized},
		{goGuard.ErrTokenInvalid, http.StatusForbidden},
		{goGuard.ErrAccessDenied, http.StatusForbidden},
		{goGuard.ErrLoginRateLimited, http.StatusTooManyRequests},
		{goGuard.ErrRateLimiterUnavailable, http.StatusServiceUnavailable},
		{goGuard.ErrDirectoryUnavailable, http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := StatusFor(tt.err); got != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
