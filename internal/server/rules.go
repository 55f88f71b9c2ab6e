package server

import (
	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/directory"
)

// DemoRules is the rule table of the demo service, in priority order.
// Anything not matched requires an authenticated caller.
func DemoRules() []goGuard.RuleConfig {
	return []goGuard.RuleConfig{
		{Pattern: "/", Require: "permitAll"},
		{Pattern: "/index", Require: "permitAll"},
		{Pattern: "/css/*", Require: "permitAll"},
		{Pattern: "/js/*", Require: "permitAll"},
		{Pattern: "/login", Require: "permitAll"},
		{Method: "GET", Pattern: "/metrics", Require: "permitAll"},
		{Method: "POST", Pattern: "/students/**", Require: "hasPermission", Values: []string{directory.PermStudentWrite}},
		{Method: "PUT", Pattern: "/students/**", Require: "hasRole", Values: []string{directory.RoleAdmin}},
		{Method: "DELETE", Pattern: "/students/**", Require: "hasRole", Values: []string{directory.RoleAdmin}},
		{Method: "GET", Pattern: "/students/**", Require: "hasAnyRole", Values: []string{directory.RoleAdmin, directory.RoleAdminTrainee}},
	}
}
