// Package match compiles user keyword patterns into a single matcher.
//
// A pattern is literal text in which '*' stands for any run of characters.
// A pattern that is exactly "*" matches a literal asterisk instead, so that a
// lone wildcard does not select every row.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Wildcard is the character that expands to "zero or more characters".
const Wildcard = "*"

// Options controls how patterns are compiled.
type Options struct {
	// CaseSensitive requires exact case; otherwise matching folds case.
	CaseSensitive bool
	// WholeCell anchors the alternation so a value must match a pattern
	// from start to end. The default is a substring test.
	WholeCell bool
}

// InvalidPatternError reports a pattern set that failed to compile.
type InvalidPatternError struct {
	Patterns []string
	Err      error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", strings.Join(e.Patterns, ", "), e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Matcher tests values against a compiled pattern alternation.
// The zero value matches nothing.
type Matcher struct {
	re       *regexp.Regexp
	patterns []string
	opt      Options
}

// Compile builds a substring matcher. An empty pattern list yields a matcher
// that never matches.
func Compile(patterns []string, caseSensitive bool) (*Matcher, error) {
	return CompileWith(patterns, Options{CaseSensitive: caseSensitive})
}

// CompileWith builds a matcher with explicit options.
func CompileWith(patterns []string, opt Options) (*Matcher, error) {
	m := &Matcher{opt: opt}
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		// "" would turn the alternation into match-everything.
		if p == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
		parts = append(parts, Expression(p))
	}
	if len(parts) == 0 {
		return m, nil
	}
	re, err := regexp.Compile(buildRegex(parts, opt))
	if err != nil {
		return nil, &InvalidPatternError{Patterns: m.Patterns(), Err: err}
	}
	m.re = re
	return m, nil
}

// Expression converts one pattern to its regular expression.
func Expression(p string) string {
	if p == Wildcard {
		return regexp.QuoteMeta(p)
	}
	segs := strings.Split(p, Wildcard)
	for i, s := range segs {
		segs[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(segs, ".*")
}

func buildRegex(parts []string, opt Options) string {
	pat := "(?:" + strings.Join(parts, "|") + ")"
	if opt.WholeCell {
		pat = "^" + pat + "$"
	}
	if !opt.CaseSensitive {
		pat = "(?i)" + pat
	}
	return pat
}

// Match reports whether value contains (or, in whole-cell mode, equals) any pattern.
func (m *Matcher) Match(value string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(value)
}

// Patterns returns the non-empty patterns the matcher was built from.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}

// Empty reports whether the matcher has no patterns and therefore never matches.
func (m *Matcher) Empty() bool { return m == nil || m.re == nil }

// String returns the compiled expression, or "" for an empty matcher.
func (m *Matcher) String() string {
	if m.Empty() {
		return ""
	}
	return m.re.String()
}
