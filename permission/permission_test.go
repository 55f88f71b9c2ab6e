package permission

import (
	"reflect"
	"testing"
)

func newTestRoleManager(t *testing.T) *RoleManager {
	t.Helper()

	reg := NewRegistry()
	for _, p := range []string{"STUDENT_READ", "STUDENT_WRITE", "COURSE_READ", "COURSE_WRITE"} {
		if err := reg.Register(p); err != nil {
			t.Fatalf("register %s: %v", p, err)
		}
	}
	reg.Freeze()

	rm := NewRoleManager(reg)
	roles := map[string][]string{
		"ADMIN":        {"STUDENT_READ", "STUDENT_WRITE", "COURSE_READ", "COURSE_WRITE"},
		"ADMINTRAINEE": {"STUDENT_READ", "COURSE_READ"},
		"STUDENT":      nil,
	}
	for name, perms := range roles {
		if err := rm.RegisterRole(name, perms); err != nil {
			t.Fatalf("register role %s: %v", name, err)
		}
	}
	rm.Freeze()
	return rm
}

func TestRegistryRejectsDuplicatesAndFrozenWrites(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("STUDENT_READ"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("STUDENT_READ"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := reg.Register("ROLE_ADMIN"); err == nil {
		t.Fatal("expected role-prefixed permission to fail")
	}
	if err := reg.Register("  "); err == nil {
		t.Fatal("expected blank permission to fail")
	}

	reg.Freeze()
	if err := reg.Register("COURSE_READ"); err == nil {
		t.Fatal("expected frozen registry to reject registration")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected 1 permission, got %d", reg.Count())
	}
}

func TestGrantedAuthoritiesIncludesPrefixedRole(t *testing.T) {
	rm := newTestRoleManager(t)

	got, err := rm.GrantedAuthorities("ADMINTRAINEE")
	if err != nil {
		t.Fatalf("granted authorities: %v", err)
	}
	want := []string{"COURSE_READ", "ROLE_ADMINTRAINEE", "STUDENT_READ"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = rm.GrantedAuthorities("ROLE_STUDENT")
	if err != nil {
		t.Fatalf("granted authorities with prefix: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"ROLE_STUDENT"}) {
		t.Fatalf("unexpected student authorities %v", got)
	}

	if _, err := rm.GrantedAuthorities("JANITOR"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestRoleManagerRejectsUnknownPermissionAndFrozenWrites(t *testing.T) {
	reg := NewRegistry()
	rm := NewRoleManager(reg)
	if err := rm.RegisterRole("ADMIN", []string{"MISSING"}); err == nil {
		t.Fatal("expected unregistered permission to fail")
	}

	rm.Freeze()
	if err := rm.RegisterRole("STUDENT", nil); err == nil {
		t.Fatal("expected frozen role manager to reject registration")
	}
}

func TestNormalizeAuthoritiesSortsAndDeduplicates(t *testing.T) {
	got := NormalizeAuthorities([]string{"b", " a ", "", "b", "ROLE_X"})
	want := []string{"ROLE_X", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if NormalizeAuthorities(nil) == nil {
		t.Fatal("expected non-nil empty slice")
	}
}

func TestRoleAuthority(t *testing.T) {
	if got := RoleAuthority("ADMIN"); got != "ROLE_ADMIN" {
		t.Fatalf("got %q", got)
	}
	if got := RoleAuthority("ROLE_ADMIN"); got != "ROLE_ADMIN" {
		t.Fatalf("prefixed role changed: %q", got)
	}
}
