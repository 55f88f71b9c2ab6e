package password

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password empty")
	// ErrPasswordTooLong is returned when a password exceeds the hasher's input limit.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrUnsupportedHash is returned when an encoded hash matches no known scheme.
	ErrUnsupportedHash = errors.New("unsupported password hash format")
	// ErrMalformedHash is returned when an encoded hash names a known scheme
	// but cannot be decoded.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Scheme names a hashing algorithm.
type Scheme string

const (
	SchemeArgon2id Scheme = "argon2id"
	SchemeBcrypt   Scheme = "bcrypt"
)

// Verifier checks a plaintext password against a stored encoded hash.
type Verifier interface {
	Verify(password, encodedHash string) (bool, error)
}

// Hasher produces encoded hashes.
type Hasher interface {
	Hash(password string) (string, error)
}

// SchemeOf identifies the scheme of encodedHash from its prefix.
func SchemeOf(encodedHash string) (Scheme, bool) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return SchemeArgon2id, true
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return SchemeBcrypt, true
	default:
		return "", false
	}
}

// Multi verifies hashes of any supported scheme and hashes new passwords with
// the preferred one. Either backend may be nil, in which case hashes of that
// scheme are reported as unsupported.
type Multi struct {
	Argon2    *Argon2
	Bcrypt    *Bcrypt
	Preferred Scheme
}

// Hash hashes password with the preferred scheme.
func (m *Multi) Hash(password string) (string, error) {
	switch m.Preferred {
	case SchemeBcrypt:
		if m.Bcrypt != nil {
			return m.Bcrypt.Hash(password)
		}
	case SchemeArgon2id, "":
		if m.Argon2 != nil {
			return m.Argon2.Hash(password)
		}
	}
	return "", ErrUnsupportedHash
}

// Verify dispatches on the hash prefix.
func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	scheme, ok := SchemeOf(encodedHash)
	if !ok {
		return false, ErrUnsupportedHash
	}
	switch scheme {
	case SchemeArgon2id:
		if m.Argon2 != nil {
			return m.Argon2.Verify(password, encodedHash)
		}
	case SchemeBcrypt:
		if m.Bcrypt != nil {
			return m.Bcrypt.Verify(password, encodedHash)
		}
	}
	return false, ErrUnsupportedHash
}

// NeedsUpgrade reports whether encodedHash should be re-hashed: either it is
// not in the preferred scheme or the backend considers its cost too low.
func (m *Multi) NeedsUpgrade(encodedHash string) (bool, error) {
	scheme, ok := SchemeOf(encodedHash)
	if !ok {
		return false, ErrUnsupportedHash
	}
	preferred := m.Preferred
	if preferred == "" {
		preferred = SchemeArgon2id
	}
	if scheme != preferred {
		return true, nil
	}
	switch scheme {
	case SchemeArgon2id:
		if m.Argon2 != nil {
			return m.Argon2.NeedsUpgrade(encodedHash)
		}
	case SchemeBcrypt:
		if m.Bcrypt != nil {
			return m.Bcrypt.NeedsUpgrade(encodedHash)
		}
	}
	return false, ErrUnsupportedHash
}
