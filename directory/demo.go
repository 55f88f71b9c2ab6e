package directory

import (
	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/permission"
)

// Permission names of the demo students service.
const (
	PermStudentRead  = "STUDENT_READ"
	PermStudentWrite = "STUDENT_WRITE"
	PermCourseRead   = "COURSE_READ"
	PermCourseWrite  = "COURSE_WRITE"
)

// Demo role names.
const (
	RoleAdmin        = "ADMIN"
	RoleAdminTrainee = "ADMINTRAINEE"
	RoleStudent      = "STUDENT"
)

// DemoPassword is the shared password of the demo accounts.
const DemoPassword = "password"

// DemoRoles returns the frozen role catalog of the demo service.
func DemoRoles() (*permission.RoleManager, error) {
	registry := permission.NewRegistry()
	for _, p := range []string{PermStudentRead, PermStudentWrite, PermCourseRead, PermCourseWrite} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	roles := permission.NewRoleManager(registry)
	grants := []struct {
		role  string
		perms []string
	}{
		{RoleAdmin, []string{PermStudentRead, PermStudentWrite, PermCourseRead, PermCourseWrite}},
		{RoleAdminTrainee, []string{PermStudentRead, PermCourseRead}},
		{RoleStudent, nil},
	}
	for _, g := range grants {
		if err := roles.RegisterRole(g.role, g.perms); err != nil {
			return nil, err
		}
	}
	roles.Freeze()
	return roles, nil
}

// DemoUsers returns the demo accounts.
func DemoUsers() []User {
	return []User{
		{Username: "annasmith", Password: DemoPassword, Roles: []string{RoleStudent}},
		{Username: "linda", Password: DemoPassword, Roles: []string{RoleAdmin}},
		{Username: "tom", Password: DemoPassword, Roles: []string{RoleAdminTrainee}},
	}
}

// NewDemoMemory returns a Memory directory holding the demo accounts with
// passwords hashed by hasher.
func NewDemoMemory(hasher interface{ Hash(string) (string, error) }) (*Memory, error) {
	roles, err := DemoRoles()
	if err != nil {
		return nil, err
	}

	m := NewMemory()
	for _, u := range DemoUsers() {
		rec, err := Provision(u, hasher, roles)
		if err != nil {
			return nil, err
		}
		if err := m.Put(rec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var _ goGuard.UserDirectory = (*Memory)(nil)
