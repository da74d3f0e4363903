// Package rules describes one marking job (column, keywords, label) and
// persists named presets of them.
package rules

import (
	"errors"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/annotate"
)

var (
	ErrNoColumn   = errors.New("no search column given")
	ErrNoKeywords = errors.New("please enter at least one keyword")
	ErrNoLabel    = errors.New("please enter the label to write into the remark column")
)

// Rule is a complete marking job minus the input data.
type Rule struct {
	Column        string   `yaml:"column"`
	Patterns      []string `yaml:"patterns"`
	Label         string   `yaml:"label"`
	CaseSensitive bool     `yaml:"case_sensitive,omitempty"`
	WholeCell     bool     `yaml:"whole_cell,omitempty"`
}

// ParseKeywords splits text into one keyword per line, trimming whitespace
// and dropping blank lines. Both \n and \r\n line endings are accepted.
func ParseKeywords(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if k := strings.TrimSpace(line); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Normalize trims the column, label and patterns and drops blank patterns.
func (r Rule) Normalize() Rule {
	r.Column = strings.TrimSpace(r.Column)
	r.Label = strings.TrimSpace(r.Label)
	r.Patterns = ParseKeywords(strings.Join(r.Patterns, "\n"))
	return r
}

// Validate reports the first missing piece of the rule. Call on a
// normalized rule.
func (r Rule) Validate() error {
	switch {
	case r.Column == "":
		return ErrNoColumn
	case len(r.Patterns) == 0:
		return ErrNoKeywords
	case r.Label == "":
		return ErrNoLabel
	}
	return nil
}

// Request converts the rule into an annotation request.
func (r Rule) Request() annotate.Request {
	return annotate.Request{
		Column:        r.Column,
		Patterns:      append([]string(nil), r.Patterns...),
		Label:         r.Label,
		CaseSensitive: r.CaseSensitive,
		WholeCell:     r.WholeCell,
	}
}
