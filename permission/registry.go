package permission

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Registry holds the set of known permission names.
type Registry struct {
	mu     sync.RWMutex
	names  map[string]struct{}
	order  []string
	frozen bool
}

// NewRegistry creates an empty permission [Registry].
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register adds the named permission. Names are case-sensitive and must not
// carry the role prefix. Must be called before [Registry.Freeze].
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("permission name cannot be empty")
	}
	if strings.HasPrefix(name, RolePrefix) {
		return errors.New("permission name cannot use the role prefix: " + name)
	}

	if _, exists := r.names[name]; exists {
		return errors.New("permission already registered: " + name)
	}

	r.names[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether the named permission was registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns the registered permissions in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// NormalizeAuthorities returns a sorted copy of authorities with blanks and
// duplicates removed. The result is never nil.
func NormalizeAuthorities(authorities []string) []string {
	out := make([]string, 0, len(authorities))
	seen := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
