package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/permission"
)

// ErrUserExists is returned when adding a username that is already present.
var ErrUserExists = errors.New("user already exists")

// User is the provisioning form of an account: a plaintext password and role
// names, before hashing and role expansion.
type User struct {
	Username string
	Password string
	Roles    []string
	Status   goGuard.AccountStatus
}

// Memory is a concurrency-safe in-memory directory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]goGuard.UserRecord
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]goGuard.UserRecord)}
}

// Put stores rec, replacing any existing record for the same username.
func (m *Memory) Put(rec goGuard.UserRecord) error {
	if strings.TrimSpace(rec.Username) == "" {
		return errors.New("username empty")
	}
	rec.Authorities = permission.NormalizeAuthorities(rec.Authorities)

	m.mu.Lock()
	m.users[rec.Username] = rec
	m.mu.Unlock()
	return nil
}

// LookupUser implements goGuard.UserDirectory.
func (m *Memory) LookupUser(_ context.Context, username string) (goGuard.UserRecord, error) {
	m.mu.RLock()
	rec, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return goGuard.UserRecord{}, fmt.Errorf("%w: %s", goGuard.ErrUserNotFound, username)
	}
	rec.Authorities = append([]string(nil), rec.Authorities...)
	return rec, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// Provision hashes u's password with hasher, expands its roles through roles
// and returns the resulting record.
func Provision(u User, hasher interface{ Hash(string) (string, error) }, roles *permission.RoleManager) (goGuard.UserRecord, error) {
	if strings.TrimSpace(u.Username) == "" {
		return goGuard.UserRecord{}, errors.New("username empty")
	}
	hash, err := hasher.Hash(u.Password)
	if err != nil {
		return goGuard.UserRecord{}, fmt.Errorf("hash password for %s: %w", u.Username, err)
	}
	authorities, err := roles.GrantedAuthorities(u.Roles...)
	if err != nil {
		return goGuard.UserRecord{}, fmt.Errorf("user %s: %w", u.Username, err)
	}
	return goGuard.UserRecord{
		Username:     u.Username,
		PasswordHash: hash,
		Authorities:  authorities,
		Status:       u.Status,
	}, nil
}
