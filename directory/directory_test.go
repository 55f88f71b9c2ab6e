package directory

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/password"
)

func testHasher(t *testing.T) *password.Bcrypt {
	t.Helper()
	b, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	return b
}

func TestDemoRoles(t *testing.T) {
	roles, err := DemoRoles()
	if err != nil {
		t.Fatalf("DemoRoles failed: %v", err)
	}

	tests := []struct {
		role string
		want []string
	}{
		{RoleAdmin, []string{"COURSE_READ", "COURSE_WRITE", "ROLE_ADMIN", "STUDENT_READ", "STUDENT_WRITE"}},
		{RoleAdminTrainee, []string{"COURSE_READ", "ROLE_ADMINTRAINEE", "STUDENT_READ"}},
		{RoleStudent, []string{"ROLE_STUDENT"}},
	}
	for _, tt := range tests {
		got, err := roles.GrantedAuthorities(tt.role)
		if err != nil {
			t.Fatalf("%s: %v", tt.role, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.role, tt.want, got)
		}
	}

	if err := roles.RegisterRole("LATE", nil); err == nil {
		t.Fatalf("demo catalog must be frozen")
	}
}

func TestMemoryLookup(t *testing.T) {
	hasher := testHasher(t)
	m, err := NewDemoMemory(hasher)
	if err != nil {
		t.Fatalf("NewDemoMemory failed: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 demo users, got %d", m.Len())
	}

	rec, err := m.LookupUser(context.Background(), "linda")
	if err != nil {
		t.Fatalf("LookupUser failed: %v", err)
	}
	if ok, _ := hasher.Verify(DemoPassword, rec.PasswordHash); !ok {
		t.Fatalf("stored hash does not verify")
	}
	if !slices.Contains(rec.Authorities, "ROLE_ADMIN") {
		t.Fatalf("missing role authority: %v", rec.Authorities)
	}

	// returned slices are copies
	rec.Authorities[0] = "TAMPERED"
	again, _ := m.LookupUser(context.Background(), "linda")
	if slices.Contains(again.Authorities, "TAMPERED") {
		t.Fatalf("lookup exposed internal storage")
	}

	if _, err := m.LookupUser(context.Background(), "ghost"); !errors.Is(err, goGuard.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProvisionUnknownRole(t *testing.T) {
	roles, err := DemoRoles()
	if err != nil {
		t.Fatalf("DemoRoles failed: %v", err)
	}
	_, err = Provision(User{Username: "x", Password: "pw", Roles: []string{"WIZARD"}}, testHasher(t), roles)
	if err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestSQLiteDirectory(t *testing.T) {
	for _, tc := range []struct {
		name string
		dsn  func(t *testing.T) string
	}{
		{"memory", func(*testing.T) string { return MemoryDSN }},
		{"file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "data", "users.db") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := OpenSQLite(tc.dsn(t))
			if err != nil {
				t.Fatalf("OpenSQLite failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })

			hasher := testHasher(t)
			if err := s.SeedDemo(ctx, hasher); err != nil {
				t.Fatalf("SeedDemo failed: %v", err)
			}
			// idempotent
			if err := s.SeedDemo(ctx, hasher); err != nil {
				t.Fatalf("second SeedDemo failed: %v", err)
			}

			names, err := s.Usernames(ctx)
			if err != nil {
				t.Fatalf("Usernames failed: %v", err)
			}
			if !slices.Equal(names, []string{"annasmith", "linda", "tom"}) {
				t.Fatalf("unexpected users %v", names)
			}

			rec, err := s.LookupUser(ctx, "tom")
			if err != nil {
				t.Fatalf("LookupUser failed: %v", err)
			}
			want := []string{"COURSE_READ", "ROLE_ADMINTRAINEE", "STUDENT_READ"}
			if !slices.Equal(rec.Authorities, want) {
				t.Fatalf("expected %v, got %v", want, rec.Authorities)
			}
			if rec.Status != goGuard.AccountActive {
				t.Fatalf("expected active, got %v", rec.Status)
			}

			if err := s.AddUser(ctx, goGuard.UserRecord{Username: "tom", PasswordHash: "x"}); !errors.Is(err, ErrUserExists) {
				t.Fatalf("expected ErrUserExists, got %v", err)
			}

			if err := s.SetStatus(ctx, "tom", goGuard.AccountLocked); err != nil {
				t.Fatalf("SetStatus failed: %v", err)
			}
			rec, _ = s.LookupUser(ctx, "tom")
			if rec.Status != goGuard.AccountLocked {
				t.Fatalf("expected locked, got %v", rec.Status)
			}
			if err := s.SetStatus(ctx, "ghost", goGuard.AccountLocked); !errors.Is(err, goGuard.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}

			if _, err := s.LookupUser(ctx, "ghost"); !errors.Is(err, goGuard.ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}
		})
	}
}

func TestSQLiteBackedEngine(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(MemoryDSN)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()
	if err := s.SeedDemo(ctx, testHasher(t)); err != nil {
		t.Fatalf("SeedDemo failed: %v", err)
	}

	cfg := goGuard.DefaultConfig()
	cfg.JWT.Secret = goGuard.Secret("0123456789abcdef0123456789abcdef")
	cfg.Password.Scheme = "bcrypt"
	cfg.Password.BcryptCost = 4

	e, err := goGuard.New().WithConfig(cfg).WithUserDirectory(s).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer e.Close()

	res, err := e.Login(ctx, goGuard.Credentials{Username: "annasmith", Password: DemoPassword})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.Principal.HasRole(RoleStudent) {
		t.Fatalf("expected STUDENT role, got %v", res.Principal.Authorities())
	}
}
