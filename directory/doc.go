// Package directory provides goGuard.UserDirectory implementations: an
// in-memory map for tests and demos, and a SQLite store built on
// modernc.org/sqlite.
//
// Users are granted roles. A role expands to ROLE_<name> plus the role's
// permissions through a frozen permission.RoleManager, and the expanded
// authorities are what LookupUser returns.
package directory
