package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/annotate"
	"github.com/KaramelBytes/sheetmark-cli/internal/match"
	"github.com/KaramelBytes/sheetmark-cli/internal/rules"
	"github.com/KaramelBytes/sheetmark-cli/internal/sheet"
)

// userMessage turns the typed failures of the marking pipeline into the text
// shown on the terminal. Other errors pass through unchanged.
func userMessage(err error) string {
	var colErr *annotate.ColumnNotFoundError
	var patErr *match.InvalidPatternError
	switch {
	case errors.As(err, &colErr):
		if len(colErr.Available) == 0 {
			return fmt.Sprintf("column %q not found: the sheet has no columns", colErr.Column)
		}
		return fmt.Sprintf("column %q not found; choose one of: %s", colErr.Column, strings.Join(colErr.Available, ", "))
	case errors.As(err, &patErr):
		return fmt.Sprintf("keywords could not be compiled (%v); check %s", patErr.Err, strings.Join(patErr.Patterns, ", "))
	case errors.Is(err, rules.ErrNoKeywords), errors.Is(err, rules.ErrNoLabel):
		return "⚠ " + err.Error()
	case errors.Is(err, sheet.ErrUnsupported):
		return err.Error() + " (use .xlsx, .csv or .tsv)"
	}
	return err.Error()
}
