package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/MrEthical07/goGuard"
)

const maxLoginBodyBytes = 64 << 10

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the JSON body of a successful login.
type LoginResponse struct {
	TokenType   string    `json:"token_type"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginHandler serves POST /login. The body is JSON {"username","password"};
// form-encoded username and password fields are accepted as well.
//
// On success it responds 200 with an "Authorization: Bearer <token>" header
// and a [LoginResponse] body. Every credential failure gets the same 401.
func LoginHandler(engine *goGuard.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}
		if engine == nil {
			writeError(w, goGuard.ErrEngineNotReady)
			return
		}

		creds, ok := decodeCredentials(w, r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: msgBadRequest})
			return
		}

		ctx := withRequestContext(w, r)
		res, err := engine.Login(ctx, creds)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Authorization", res.TokenType+" "+res.Token)
		writeJSON(w, http.StatusOK, LoginResponse{
			TokenType:   res.TokenType,
			AccessToken: res.Token,
			ExpiresAt:   res.ExpiresAt.UTC(),
		})
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (goGuard.Credentials, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return goGuard.Credentials{}, false
		}
		return goGuard.Credentials{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}, true
	default:
		var body loginRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			return goGuard.Credentials{}, false
		}
		return goGuard.Credentials{Username: body.Username, Password: body.Password}, true
	}
}
