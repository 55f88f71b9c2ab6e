package goGuard

import (
	"context"
	"slices"
	"time"

	"github.com/MrEthical07/goGuard/permission"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	AccountActive AccountStatus = iota
	AccountDisabled
	AccountLocked
	AccountExpired
)

func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountDisabled:
		return "disabled"
	case AccountLocked:
		return "locked"
	case AccountExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ParseAccountStatus is the inverse of AccountStatus.String.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	for _, st := range []AccountStatus{AccountActive, AccountDisabled, AccountLocked, AccountExpired} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Credentials is a username/password pair presented at login. The password
// is never logged, audited or included in errors.
type Credentials struct {
	Username string
	Password string
}

// UserRecord is the account record returned by a [UserDirectory].
// Authorities are the granted authority strings: ROLE_-prefixed roles and
// bare permission names.
type UserRecord struct {
	Username     string
	PasswordHash string
	Authorities  []string
	Status       AccountStatus
}

// UserDirectory is the external user credential store.
//
// LookupUser must return an error wrapping [ErrUserNotFound] when no user
// matches. Any other error is treated as an infrastructure failure.
type UserDirectory interface {
	LookupUser(ctx context.Context, username string) (UserRecord, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
// A mismatch is (false, nil); an error means the hash could not be checked.
type PasswordVerifier interface {
	Verify(password, encodedHash string) (bool, error)
}

// Principal is an authenticated identity. It is immutable: the constructor
// copies its input and accessors return copies.
type Principal struct {
	username    string
	authorities []string
}

// NewPrincipal builds a principal with a normalized (sorted, de-duplicated)
// authority set.
func NewPrincipal(username string, authorities []string) *Principal {
	return &Principal{
		username:    username,
		authorities: permission.NormalizeAuthorities(authorities),
	}
}

func (p *Principal) Username() string {
	if p == nil {
		return ""
	}
	return p.username
}

// Authorities returns a copy of the granted authorities in sorted order.
func (p *Principal) Authorities() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.authorities)
}

// HasAuthority reports whether p holds authority verbatim.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	_, found := slices.BinarySearch(p.authorities, authority)
	return found
}

// HasRole reports whether p holds ROLE_<role>.
func (p *Principal) HasRole(role string) bool {
	return p.HasAuthority(permission.RoleAuthority(role))
}

// SecurityContext is the per-request authentication state established by
// the token verification middleware. Exactly one exists per request.
type SecurityContext struct {
	Principal     *Principal
	Authenticated bool
}

// Anonymous is the security context of a request without a bearer token.
func Anonymous() SecurityContext {
	return SecurityContext{}
}

// Authenticated returns the security context for a verified principal.
func Authenticated(p *Principal) SecurityContext {
	return SecurityContext{Principal: p, Authenticated: p != nil}
}

func (sc SecurityContext) authorities() []string {
	if !sc.Authenticated || sc.Principal == nil {
		return nil
	}
	return sc.Principal.authorities
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Principal *Principal
	Token     string
	TokenType string
	ExpiresAt time.Time
}
