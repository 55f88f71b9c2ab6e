// Package permission provides the permission registry, role composition, and
// authority-set helpers used by goGuard to build a principal's granted authorities.
//
// # Authorities
//
// An authority is a plain string. Coarse roles carry the [RolePrefix] ("ROLE_ADMIN");
// fine-grained permissions are bare names ("STUDENT_WRITE"). A role registered with
// [RoleManager.RegisterRole] expands to its permissions plus its prefixed role name.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. Registries and role
// managers are populated at startup and frozen; after [RoleManager.Freeze] they are
// read-only and safe for concurrent use.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goGuard, jwt, or rules.
//   - Mutate a frozen registry.
package permission
