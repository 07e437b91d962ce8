// Package dateutils provides the date handling used by statement parsing and
// matching. All statement and book dates are calendar days: values are
// truncated to midnight UTC before they are compared or stored.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutSlash    = "02/01/2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// CommonFormats is the list of layouts tried by ParseDate, day-first before
// month-first.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutSlash,
	DateLayoutFull,
	"02-01-2006",
	"2006/01/02",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using CommonFormats and returns
// the date-only value with the detected layout.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return DateOnly(t), format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a date-only value.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	d := int(DateOnly(a).Sub(DateOnly(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return Date(date.Year(), date.Month(), 1)
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// Pattern tokens understood by PatternToLayout, longest first.
var patternTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dd", "02"},
	{"d", "2"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"ss", "05"},
	{"SSS", "000"},
	{"a", "PM"},
}

// PatternToLayout converts a pattern written with the conventional letters
// (dd/MM/yyyy, yyyy-MM-dd HH:mm:ss, d MMM yyyy) into a Go reference layout.
// Text between single quotes is copied literally.
func PatternToLayout(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("empty date pattern")
	}

	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		if c == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				return "", fmt.Errorf("unterminated quote in date pattern %q", pattern)
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}
		if !isPatternLetter(c) {
			b.WriteByte(c)
			i++
			continue
		}

		run := 1
		for i+run < len(pattern) && pattern[i+run] == c {
			run++
		}
		token := pattern[i : i+run]
		layout, ok := lookupToken(token)
		if !ok {
			return "", fmt.Errorf("unsupported token %q in date pattern %q", token, pattern)
		}
		b.WriteString(layout)
		i += run
	}
	return b.String(), nil
}

func isPatternLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func lookupToken(token string) (string, bool) {
	for _, t := range patternTokens {
		if t.token == token {
			return t.layout, true
		}
	}
	return "", false
}

// ParseWithPattern parses value with a pattern accepted by PatternToLayout and
// returns the date-only result.
func ParseWithPattern(value, pattern string) (time.Time, error) {
	layout, err := PatternToLayout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, CleanDateString(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not match pattern %s: %w", value, pattern, err)
	}
	return DateOnly(t), nil
}
