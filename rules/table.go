package rules

import (
	"fmt"
	"net/http"
	"strings"
)

// Reasons reported on a [Decision].
const (
	ReasonPermitted        = "permitted"
	ReasonUnauthenticated  = "unauthenticated"
	ReasonMissingAuthority = "missing_authority"
	ReasonDeniedByRule     = "deny_all"
)

const (
	defaultRuleIndex = -1
	wildcardMethod   = "*"
)

// Rule binds a method and path pattern to a requirement. An empty or "*"
// method matches every method.
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement
}

func (r Rule) String() string {
	method := r.Method
	if method == "" {
		method = wildcardMethod
	}
	return method + " " + r.Pattern + " -> " + r.Requirement.String()
}

// Decision is the outcome of [Table.Authorize].
type Decision struct {
	Allowed bool
	// RuleIndex is the position of the deciding rule, or -1 when the default
	// requirement applied.
	RuleIndex   int
	Requirement Requirement
	Reason      string
}

// Default reports whether no rule matched.
func (d Decision) Default() bool {
	return d.RuleIndex == defaultRuleIndex
}

type compiledRule struct {
	rule    Rule
	method  string
	matcher *Matcher
}

// Table is an ordered, immutable rule list evaluated first-match. Requests no
// rule matches fall through to AnyAuthenticated.
//
// Table is safe for concurrent use.
type Table struct {
	rules    []compiledRule
	fallback Requirement
}

// NewTable compiles rules in the given order. A malformed pattern, method or
// requirement is an error.
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{
		rules:    make([]compiledRule, 0, len(rules)),
		fallback: AnyAuthenticated(),
	}
	for i, r := range rules {
		m, err := Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if err := r.Requirement.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		method := strings.ToUpper(strings.TrimSpace(r.Method))
		if method == "" {
			method = wildcardMethod
		}
		if method != wildcardMethod && !validMethod(method) {
			return nil, fmt.Errorf("rule %d: invalid method %q", i, r.Method)
		}

		r.Requirement.Values = append([]string(nil), r.Requirement.Values...)
		t.rules = append(t.rules, compiledRule{rule: r, method: method, matcher: m})
	}
	return t, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(rules ...Rule) *Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the rules in evaluation order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, cr := range t.rules {
		out[i] = cr.rule
		out[i].Requirement.Values = append([]string(nil), cr.rule.Requirement.Values...)
	}
	return out
}

// Match returns the index of the first rule matching method and path, or -1.
func (t *Table) Match(method, path string) int {
	method = strings.ToUpper(method)
	if path == "" {
		path = "/"
	}
	for i, cr := range t.rules {
		if cr.method != wildcardMethod && cr.method != method {
			continue
		}
		if cr.matcher.Match(path) {
			return i
		}
	}
	return defaultRuleIndex
}

// Authorize decides whether a caller may perform method on path. Only the
// first matching rule is consulted.
func (t *Table) Authorize(method, path string, authenticated bool, authorities []string) Decision {
	idx := t.Match(method, path)
	req := t.fallback
	if idx != defaultRuleIndex {
		req = t.rules[idx].rule.Requirement
	}

	d := Decision{RuleIndex: idx, Requirement: req}
	switch {
	case req.Satisfied(authenticated, authorities):
		d.Allowed = true
		d.Reason = ReasonPermitted
	case req.Kind == KindDenyAll:
		d.Reason = ReasonDeniedByRule
	case !authenticated:
		d.Reason = ReasonUnauthenticated
	default:
		d.Reason = ReasonMissingAuthority
	}
	return d
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
