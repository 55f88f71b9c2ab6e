package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches request paths against an Ant-style pattern:
//
//	?     exactly one character within a segment
//	*     zero or more characters within a segment
//	**    zero or more whole segments
//	{id}  one path variable, treated as *
//
// A trailing "/**" also matches the bare prefix, so "/students/**" matches
// "/students" as well as "/students/1".
type Matcher struct {
	pattern string
	globs   []glob.Glob
}

// Compile parses pattern. Patterns must be absolute.
func Compile(pattern string) (*Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errors.New("pattern empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must start with /", pattern)
	}

	translated, err := translate(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	m := &Matcher{pattern: pattern}
	for _, variant := range expandDoubleStar(translated) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Match reports whether path matches the pattern.
func (m *Matcher) Match(path string) bool {
	for _, g := range m.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// translate rewrites Ant syntax into gobwas/glob syntax: path variables
// become *, and characters glob would interpret but Ant treats literally are
// escaped. A "**" must occupy a whole segment.
func translate(pattern string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return "", errors.New("unterminated path variable")
			}
			b.WriteByte('*')
			i += end
		case '}':
			return "", errors.New("unbalanced }")
		case '[', ']', '\\', '!':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if pattern[i-1] != '/' || (i+2 < len(pattern) && pattern[i+2] != '/') {
					return "", errors.New("** must be a whole path segment")
				}
				b.WriteString("**")
				i++
				continue
			}
			b.WriteByte('*')
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// expandDoubleStar returns pattern plus every variant in which one or more
// "/**" segments match zero segments.
func expandDoubleStar(pattern string) []string {
	idx := strings.Index(pattern, "/**")
	if idx < 0 {
		return []string{pattern}
	}
	head := pattern[:idx]
	rest := pattern[idx+len("/**"):]

	var out []string
	for _, tail := range expandDoubleStar(rest) {
		out = append(out, head+"/**"+tail)
		if head+tail == "" {
			// "/**" alone: zero segments is the root.
			out = append(out, "/")
			continue
		}
		out = append(out, head+tail)
	}
	return out
}
