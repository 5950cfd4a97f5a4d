package normalize

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar day format.
const DateLayout = "2006-01-02"

const maxYear = 9999

// accepted timestamp shapes, offset-less ones are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// DueDate is the outcome of due date validation.
// Value is empty when no date was supplied.
type DueDate struct {
	Value string
	Err   *ValidationError
}

func (d DueDate) OK() bool {
	return d.Err == nil
}

func (d DueDate) Present() bool {
	return d.Value != ""
}

// ValidateDueDate turns a date-like input into its UTC calendar day and rejects
// days before the UTC day of now.
func ValidateDueDate(input any, now time.Time) DueDate {
	t, present, ok := parseTimestamp(input)
	if !present {
		return DueDate{}
	}

	day := UTCDay(t)
	// the canonical form has a four digit year
	if !ok || day.Year() < 0 || day.Year() > maxYear {
		return DueDate{Err: &ValidationError{Kind: KindInvalidDate, Field: "due_date", Message: msgInvalidDate}}
	}

	if day.Before(UTCDay(now)) {
		return DueDate{Err: &ValidationError{Kind: KindPastDate, Field: "due_date", Message: msgPastDate}}
	}

	return DueDate{Value: day.Format(DateLayout)}
}

// UTCDay truncates t to midnight of its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a canonical YYYY-MM-DD day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

func parseTimestamp(input any) (t time.Time, present bool, ok bool) {
	switch v := input.(type) {
	case nil:
		return time.Time{}, false, false
	case string:
		return parseTimestampString(v)
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false, false
		}
		return v, true, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false, false
		}
		return *v, true, true
	default:
		return time.Time{}, true, false
	}
}

func parseTimestampString(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, true
		}
	}

	return time.Time{}, true, false
}
