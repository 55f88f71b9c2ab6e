package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MrEthical07/goGuard/permission"
)

// Kind tags a [Requirement] variant.
type Kind int

const (
	KindAnyAuthenticated Kind = iota
	KindPermitAll
	KindDenyAll
	KindHasRole
	KindHasAnyRole
	KindHasPermission
	KindHasAnyPermission
)

var kindNames = map[Kind]string{
	KindAnyAuthenticated: "authenticated",
	KindPermitAll:        "permitAll",
	KindDenyAll:          "denyAll",
	KindHasRole:          "hasRole",
	KindHasAnyRole:       "hasAnyRole",
	KindHasPermission:    "hasPermission",
	KindHasAnyPermission: "hasAnyPermission",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names produced by Kind.String, case-insensitively,
// plus the aliases hasAuthority and hasAnyAuthority.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "authenticated", "anyauthenticated":
		return KindAnyAuthenticated, nil
	case "permitall":
		return KindPermitAll, nil
	case "denyall":
		return KindDenyAll, nil
	case "hasrole":
		return KindHasRole, nil
	case "hasanyrole":
		return KindHasAnyRole, nil
	case "haspermission", "hasauthority":
		return KindHasPermission, nil
	case "hasanypermission", "hasanyauthority":
		return KindHasAnyPermission, nil
	default:
		return 0, fmt.Errorf("unknown requirement %q", s)
	}
}

// Requirement is the access condition attached to a rule. Role values are
// stored as authorities, i.e. with the ROLE_ prefix.
type Requirement struct {
	Kind   Kind
	Values []string
}

func PermitAll() Requirement        { return Requirement{Kind: KindPermitAll} }
func DenyAll() Requirement          { return Requirement{Kind: KindDenyAll} }
func AnyAuthenticated() Requirement { return Requirement{Kind: KindAnyAuthenticated} }

// HasRole requires the ROLE_-prefixed authority for role.
func HasRole(role string) Requirement {
	return Requirement{Kind: KindHasRole, Values: []string{permission.RoleAuthority(role)}}
}

// HasAnyRole requires at least one of roles.
func HasAnyRole(roles ...string) Requirement {
	values := make([]string, 0, len(roles))
	for _, role := range roles {
		values = append(values, permission.RoleAuthority(role))
	}
	return Requirement{Kind: KindHasAnyRole, Values: values}
}

// HasPermission requires the exact authority p.
func HasPermission(p string) Requirement {
	return Requirement{Kind: KindHasPermission, Values: []string{p}}
}

// HasAnyPermission requires at least one of perms.
func HasAnyPermission(perms ...string) Requirement {
	return Requirement{Kind: KindHasAnyPermission, Values: slices.Clone(perms)}
}

// ParseRequirement builds a requirement from its configuration form.
func ParseRequirement(kind string, values []string) (Requirement, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Requirement{}, err
	}

	var r Requirement
	switch k {
	case KindPermitAll:
		r = PermitAll()
	case KindDenyAll:
		r = DenyAll()
	case KindAnyAuthenticated:
		r = AnyAuthenticated()
	case KindHasRole:
		if len(values) != 1 {
			return Requirement{}, errors.New("hasRole takes exactly one role")
		}
		r = HasRole(values[0])
	case KindHasAnyRole:
		r = HasAnyRole(values...)
	case KindHasPermission:
		if len(values) != 1 {
			return Requirement{}, errors.New("hasPermission takes exactly one permission")
		}
		r = HasPermission(values[0])
	case KindHasAnyPermission:
		r = HasAnyPermission(values...)
	}
	return r, r.validate()
}

func (r Requirement) validate() error {
	switch r.Kind {
	case KindPermitAll, KindDenyAll, KindAnyAuthenticated:
		if len(r.Values) != 0 {
			return fmt.Errorf("%s takes no values", r.Kind)
		}
		return nil
	case KindHasRole, KindHasAnyRole, KindHasPermission, KindHasAnyPermission:
		if len(r.Values) == 0 {
			return fmt.Errorf("%s requires at least one value", r.Kind)
		}
		for _, v := range r.Values {
			if strings.TrimSpace(v) == "" || v == permission.RolePrefix {
				return fmt.Errorf("%s has an empty value", r.Kind)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown requirement kind %d", int(r.Kind))
	}
}

// Satisfied reports whether a caller with the given authentication state and
// authorities meets r.
func (r Requirement) Satisfied(authenticated bool, authorities []string) bool {
	switch r.Kind {
	case KindPermitAll:
		return true
	case KindDenyAll:
		return false
	}
	if !authenticated {
		return false
	}
	if r.Kind == KindAnyAuthenticated {
		return true
	}
	for _, want := range r.Values {
		if slices.Contains(authorities, want) {
			return true
		}
	}
	return false
}

func (r Requirement) String() string {
	if len(r.Values) == 0 {
		return r.Kind.String()
	}
	return r.Kind.String() + "(" + strings.Join(r.Values, ",") + ")"
}
