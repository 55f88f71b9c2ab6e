package permission

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// RolePrefix is prepended to role names when they are granted as authorities.
const RolePrefix = "ROLE_"

// RoleAuthority returns the authority string for a role name. Names that
// already carry [RolePrefix] are returned unchanged.
func RoleAuthority(role string) string {
	if strings.HasPrefix(role, RolePrefix) {
		return role
	}
	return RolePrefix + role
}

// RoleManager maps role names to the permissions they grant.
//
// RoleManager instances are populated during initialization and then frozen.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string][]string
	frozen bool
}

// NewRoleManager creates a [RoleManager] whose roles may only reference
// permissions known to registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string][]string),
	}
}

// RegisterRole records the permissions granted by roleName. Every permission
// must already be registered.
func (rm *RoleManager) RegisterRole(roleName string, permissionNames []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}

	roleName = strings.TrimPrefix(strings.TrimSpace(roleName), RolePrefix)
	if roleName == "" {
		return errors.New("role name empty")
	}

	if _, exists := rm.roles[roleName]; exists {
		return errors.New("role already registered: " + roleName)
	}

	for _, perm := range permissionNames {
		if rm.registry == nil || !rm.registry.Has(perm) {
			return errors.New("permission not registered: " + perm)
		}
	}

	rm.roles[roleName] = NormalizeAuthorities(permissionNames)
	return nil
}

// Permissions returns the permissions granted by roleName.
func (rm *RoleManager) Permissions(roleName string) ([]string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	perms, ok := rm.roles[strings.TrimPrefix(roleName, RolePrefix)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, true
}

// GrantedAuthorities expands roles into the full authority set: each role's
// permissions plus the prefixed role name. Unknown roles are an error.
func (rm *RoleManager) GrantedAuthorities(roles ...string) ([]string, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var out []string
	for _, role := range roles {
		name := strings.TrimPrefix(strings.TrimSpace(role), RolePrefix)
		perms, ok := rm.roles[name]
		if !ok {
			return nil, errors.New("role not registered: " + role)
		}
		out = append(out, perms...)
		out = append(out, RolePrefix+name)
	}
	return NormalizeAuthorities(out), nil
}

// Roles returns the registered role names, sorted.
func (rm *RoleManager) Roles() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]string, 0, len(rm.roles))
	for name := range rm.roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Freeze prevents further role registrations.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
