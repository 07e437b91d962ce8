// Package currencyutils provides amount parsing for bank statement text. All
// money values are shopspring decimals; floats never appear.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned for blank amount cells.
var ErrEmptyAmount = errors.New("empty amount")

// NumberFormat describes how a statement writes numbers.
type NumberFormat struct {
	DecimalSeparator  string
	ThousandSeparator string
}

// DefaultNumberFormat is "1,234.56".
var DefaultNumberFormat = NumberFormat{DecimalSeparator: ".", ThousandSeparator: ","}

var (
	currencySymbols = regexp.MustCompile(`[€$£¥₹₽₩฿₫₱]|[A-Za-z]+\.?`)
	spaces          = regexp.MustCompile(`[\s\x{00A0}\x{202F}]`)
)

// ParseLocalized parses an amount written with the given separators. It
// accepts a leading or trailing minus sign, parenthesised negatives, currency
// symbols, letter codes such as IDR or Rp., and grouping spaces or apostrophes.
func ParseLocalized(amountStr string, format NumberFormat) (decimal.Decimal, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if format.DecimalSeparator == "" {
		format.DecimalSeparator = "."
	}
	if format.DecimalSeparator == format.ThousandSeparator {
		return decimal.Zero, fmt.Errorf("decimal and thousand separators are both %q", format.DecimalSeparator)
	}

	s = currencySymbols.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if format.ThousandSeparator != "" {
		s = strings.ReplaceAll(s, format.ThousandSeparator, "")
	}
	s = strings.ReplaceAll(s, "'", "")
	if format.DecimalSeparator != "." {
		if strings.Contains(s, ".") {
			return decimal.Zero, fmt.Errorf("failed to parse amount '%s': unexpected '.'", amountStr)
		}
		s = strings.ReplaceAll(s, format.DecimalSeparator, ".")
	}

	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseAmount parses a string representation of an amount into a decimal
// value, guessing the separators from the text. It handles "1,234.56",
// "1.234,56", "1234,56" and "1'234.56". Use ParseLocalized when the format
// is known.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	return ParseLocalized(amountStr, guessFormat(amountStr))
}

func guessFormat(amountStr string) NumberFormat {
	lastDot := strings.LastIndex(amountStr, ".")
	lastComma := strings.LastIndex(amountStr, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastDot < lastComma:
		return NumberFormat{DecimalSeparator: ",", ThousandSeparator: "."}
	case lastDot < 0 && lastComma >= 0:
		parts := strings.Split(amountStr, ",")
		if len(parts[len(parts)-1]) <= 2 {
			return NumberFormat{DecimalSeparator: ",", ThousandSeparator: "."}
		}
	}
	return DefaultNumberFormat
}

// Abs returns |amount|.
func Abs(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs()
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// FormatAmount formats a decimal amount with two decimal places and an
// optional currency code prefix, e.g. "IDR -500000.00".
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)
	if currency != "" {
		return strings.ToUpper(currency) + " " + formatted
	}
	return formatted
}
