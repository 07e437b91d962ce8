package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedLine is one statement row after parsing. Amount is signed:
// positive is money into the account.
type NormalizedLine struct {
	LineNumber  int              `json:"line_number"`
	Date        time.Time        `json:"date"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	Reference   string           `json:"reference,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Raw         string           `json:"raw,omitempty"`
}

// SkippedRow is a data row that could not be normalized.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult is the parser output: the valid lines in source order plus
// every skipped row. Balances are only set by formats that carry them.
type ParseResult struct {
	Lines          []NormalizedLine `json:"lines"`
	Skipped        []SkippedRow     `json:"skipped,omitempty"`
	OpeningBalance *decimal.Decimal `json:"opening_balance,omitempty"`
	ClosingBalance *decimal.Decimal `json:"closing_balance,omitempty"`
}

// DataRows is the number of rows that were considered, valid or not.
func (r *ParseResult) DataRows() int {
	return len(r.Lines) + len(r.Skipped)
}

// SkipRatio is skipped/considered, zero for an empty result.
func (r *ParseResult) SkipRatio() float64 {
	if r.DataRows() == 0 {
		return 0
	}
	return float64(len(r.Skipped)) / float64(r.DataRows())
}

// Net sums the signed amounts.
func (r *ParseResult) Net() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Period returns the range spanned by the line dates.
func (r *ParseResult) Period() DateRange {
	var dr DateRange
	for _, l := range r.Lines {
		dr = dr.Merge(DateRange{Start: l.Date, End: l.Date})
	}
	return dr
}
