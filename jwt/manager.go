package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/permission"
	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported HMAC algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

// MinSecretBytes is the shortest shared secret NewManager accepts.
const MinSecretBytes = 32

// Config holds the codec settings. It is built once at startup and treated
// as immutable afterwards.
type Config struct {
	AccessTTL     time.Duration
	SigningMethod SigningMethod
	Secret        []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Claims is the payload carried by every token.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// Manager issues and verifies tokens with a single shared secret.
//
// Manager holds no mutable state and is safe for concurrent use.
type Manager struct {
	config Config
	method *jwt.SigningMethodHMAC
}

// NewManager validates cfg and returns a ready [Manager]. The secret is copied.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL < time.Second {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL%time.Second != 0 {
		return nil, errors.New("TTL must be a whole number of seconds")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("secret must be at least %d bytes", MinSecretBytes)
	}

	method, err := methodFor(cfg.SigningMethod)
	if err != nil {
		return nil, err
	}

	cfg.Secret = append([]byte(nil), cfg.Secret...)
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	return &Manager{config: cfg, method: method}, nil
}

func methodFor(m SigningMethod) (*jwt.SigningMethodHMAC, error) {
	switch m {
	case MethodHS256, "":
		return jwt.SigningMethodHS256, nil
	case MethodHS384:
		return jwt.SigningMethodHS384, nil
	case MethodHS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing method %q", m)
	}
}

// Algorithm returns the JWS "alg" value used for signing.
func (m *Manager) Algorithm() string {
	return m.method.Alg()
}

// TTL returns the fixed validity window applied to every token.
func (m *Manager) TTL() time.Duration {
	return m.config.AccessTTL
}

// Issue signs a token for subject with the given authorities. The issue time
// is now truncated to whole seconds and the expiry is exactly issue time plus
// the configured TTL. Issue is deterministic for equal inputs.
func (m *Manager) Issue(subject string, authorities []string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, errors.New("token subject empty")
	}

	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(m.config.AccessTTL)

	claims := Claims{
		Authorities: permission.NormalizeAuthorities(authorities),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token, err := jwt.NewWithClaims(m.method, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks the token's MAC and freshness at instant now and returns its
// claims. Failures wrap exactly one of [ErrTokenMalformed],
// [ErrTokenSignatureInvalid], or [ErrTokenExpired].
//
// A token is valid while now is before exp; now == exp is expired.
func (m *Manager) Verify(tokenStr string, now time.Time) (*Claims, error) {
	header, payload, sig, ok := splitToken(tokenStr)
	if !ok {
		return nil, ErrTokenMalformed
	}

	// MAC first: any altered byte must surface as a signature failure, not as
	// whatever decoding error the altered segment would otherwise produce.
	rawSig, err := base64.RawURLEncoding.Strict().DecodeString(sig)
	if err != nil || len(rawSig) == 0 {
		return nil, ErrTokenSignatureInvalid
	}
	if err := m.method.Verify(header+"."+payload, rawSig, m.config.Secret); err != nil {
		return nil, ErrTokenSignatureInvalid
	}

	claims := &Claims{}
	parser := jwt.NewParser(m.parserOptions(now)...)
	_, err = parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrTokenMalformed)
	}

	claims.Authorities = permission.NormalizeAuthorities(claims.Authorities)
	return claims, nil
}

func (m *Manager) parserOptions(now time.Time) []jwt.ParserOption {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}
	return options
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func splitToken(token string) (header, payload, sig string, ok bool) {
	if strings.Count(token, ".") != 2 {
		return "", "", "", false
	}
	parts := strings.SplitN(token, ".", 3)
	if parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
