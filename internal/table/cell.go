package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type held by a Cell.
type Kind int

const (
	// KindEmpty is a missing value.
	KindEmpty Kind = iota
	// KindText is a string value.
	KindText
	// KindNumber is a numeric value stored as float64.
	KindNumber
	// KindDate is a date or timestamp.
	KindDate
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Cell is a single typed value in a Dataset.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Empty returns a missing cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. The empty string is kept as text, not as a missing value.
func Text(s string) Cell { return Cell{Kind: KindText, Str: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{Kind: KindDate, Time: t} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// Text renders the cell as text for matching and display.
func (c Cell) Text() string {
	switch c.Kind {
	case KindText:
		return c.Str
	case KindNumber:
		return formatNumber(c.Num)
	case KindDate:
		return formatDate(c.Time)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Infer turns a raw text field into a typed cell. Numbers and dates are only
// recognised when their canonical rendering reproduces the input, so values
// such as "0012" or "1,5" stay text and survive a write round trip.
func Infer(raw string) Cell {
	if raw == "" {
		return Empty()
	}
	s := strings.TrimSpace(raw)
	if s != raw || s == "" {
		return Text(raw)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && formatNumber(f) == s {
		return Number(f)
	}
	if t, ok := parseTimeMaybe(s); ok && formatDate(t) == s {
		return Date(t)
	}
	return Text(raw)
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{dateLayout, dateTimeLayout, time.RFC3339}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
