package jwt

import "errors"

var (
	// ErrTokenMalformed is returned when the token is not a well-formed JWS or
	// its claims are structurally invalid.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid is returned when the recomputed MAC does not match.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the verification instant is at or past exp.
	ErrTokenExpired = errors.New("token expired")
)

// TokenErrorKind classifies a verification failure.
type TokenErrorKind int

const (
	// KindNone means the error is nil or not a token error.
	KindNone TokenErrorKind = iota
	KindMalformed
	KindInvalidSignature
	KindExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindExpired:
		return "expired"
	default:
		return "none"
	}
}

// KindOf maps err onto the token error taxonomy.
func KindOf(err error) TokenErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTokenSignatureInvalid):
		return KindInvalidSignature
	case errors.Is(err, ErrTokenExpired):
		return KindExpired
	case errors.Is(err, ErrTokenMalformed):
		return KindMalformed
	default:
		return KindNone
	}
}
