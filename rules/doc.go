// Package rules implements the route authorization table.
//
// A [Table] is an ordered list of [Rule] values, each binding an HTTP method
// and an Ant-style path pattern to a [Requirement]. Evaluation is first-match:
// the first rule whose method and pattern match decides, and later rules are
// never consulted even if they would decide differently. A request that no
// rule matches requires an authenticated caller.
//
// Role requirements compare against ROLE_-prefixed authorities, permission
// requirements compare verbatim:
//
//	rules.MustTable(
//		rules.Rule{Pattern: "/", Requirement: rules.PermitAll()},
//		rules.Rule{Method: "POST", Pattern: "/students/**", Requirement: rules.HasPermission("STUDENT_WRITE")},
//		rules.Rule{Method: "DELETE", Pattern: "/students/**", Requirement: rules.HasRole("ADMIN")},
//	)
//
// Tables are compiled once and are immutable afterwards.
package rules
