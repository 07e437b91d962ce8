package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/currencyutils"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNoDataRows is wrapped in the ParseError returned for files with nothing
// but blank or header rows.
var ErrNoDataRows = errors.New("file contains no data rows")

// CellFunc returns the text of the cell col addresses on the current row.
// ok is false when the row is too short to contain the column.
type CellFunc func(col *models.Column) (value string, ok bool)

// Normalizer converts source rows into NormalizedLines according to a parser
// config. It remembers which required columns were present on at least one
// row so the caller can tell a bad row from a wrong config.
type Normalizer struct {
	cfg          models.ParserConfig
	numberFormat currencyutils.NumberFormat
	required     []string
	seen         map[string]bool

	// DateFallback is tried when a date cell does not match the configured
	// pattern. Spreadsheet parsers use it for serial dates.
	DateFallback func(value string) (time.Time, bool)
}

// NewNormalizer creates a Normalizer for cfg. Unset config options take
// their defaults.
func NewNormalizer(cfg models.ParserConfig) *Normalizer {
	cfg = cfg.WithDefaults()
	return &Normalizer{
		cfg: cfg,
		numberFormat: currencyutils.NumberFormat{
			DecimalSeparator:  cfg.DecimalSeparator,
			ThousandSeparator: cfg.ThousandSeparator,
		},
		required: cfg.RequiredColumnNames(),
		seen:     make(map[string]bool),
	}
}

// Config returns the defaulted config the normalizer works with.
func (n *Normalizer) Config() models.ParserConfig {
	return n.cfg
}

// Missing lists the required columns that no row has contained so far.
func (n *Normalizer) Missing() []string {
	var missing []string
	for _, field := range n.required {
		if !n.seen[field] {
			missing = append(missing, field)
		}
	}
	return missing
}

// Normalize converts one data row. Exactly one of the results is set: the
// line, or the skipped row describing why the row could not be used.
func (n *Normalizer) Normalize(lineNumber int, raw string, cell CellFunc) (*models.NormalizedLine, *models.SkippedRow) {
	get := func(field string) (string, bool) {
		col := n.cfg.ColumnFor(field)
		if col == nil {
			return "", false
		}
		v, ok := cell(col)
		if ok {
			n.seen[field] = true
		}
		return strings.TrimSpace(v), ok
	}
	skip := func(format string, args ...interface{}) (*models.NormalizedLine, *models.SkippedRow) {
		return nil, &models.SkippedRow{Line: lineNumber, Reason: fmt.Sprintf(format, args...)}
	}

	dateStr, ok := get("date")
	if !ok {
		return skip("missing date column")
	}
	if dateStr == "" {
		return skip("empty date")
	}
	date, err := n.parseDate(dateStr)
	if err != nil {
		return skip("invalid date %q", dateStr)
	}

	var amount decimal.Decimal
	switch n.cfg.SignConvention {
	case models.SignDebitCredit:
		debitStr, debitOK := get("debit")
		creditStr, creditOK := get("credit")
		if !debitOK && !creditOK {
			return skip("missing debit and credit columns")
		}
		if debitStr == "" && creditStr == "" {
			return skip("no debit or credit amount")
		}
		debit, err := n.optionalAmount(debitStr)
		if err != nil {
			return skip("invalid debit amount %q", debitStr)
		}
		credit, err := n.optionalAmount(creditStr)
		if err != nil {
			return skip("invalid credit amount %q", creditStr)
		}
		amount = credit.Abs().Sub(debit.Abs())

	case models.SignIndicator:
		amountStr, ok := get("amount")
		if !ok {
			return skip("missing amount column")
		}
		indicator, ok := get("indicator")
		if !ok {
			return skip("missing indicator column")
		}
		magnitude, err := currencyutils.ParseLocalized(amountStr, n.numberFormat)
		if err != nil {
			return skip("invalid amount %q", amountStr)
		}
		sign, ok := n.indicatorSign(indicator)
		if !ok {
			return skip("unknown debit/credit indicator %q", indicator)
		}
		amount = magnitude.Abs().Mul(decimal.NewFromInt(int64(sign)))

	default:
		amountStr, ok := get("amount")
		if !ok {
			return skip("missing amount column")
		}
		amount, err = currencyutils.ParseLocalized(amountStr, n.numberFormat)
		if err != nil {
			return skip("invalid amount %q", amountStr)
		}
		if n.cfg.NegateAmount {
			amount = amount.Neg()
		}
	}

	description, _ := get("description")
	reference, _ := get("reference")

	line := &models.NormalizedLine{
		LineNumber:  lineNumber,
		Date:        date,
		Amount:      amount,
		Description: strings.Join(strings.Fields(description), " "),
		Reference:   reference,
		Raw:         raw,
	}
	if balanceStr, ok := get("balance"); ok && balanceStr != "" {
		if balance, err := currencyutils.ParseLocalized(balanceStr, n.numberFormat); err == nil {
			line.Balance = &balance
		}
	}
	return line, nil
}

func (n *Normalizer) parseDate(value string) (time.Time, error) {
	t, err := dateutils.ParseWithPattern(value, n.cfg.DateFormat)
	if err == nil {
		return t, nil
	}
	if n.DateFallback != nil {
		if t, ok := n.DateFallback(value); ok {
			return dateutils.DateOnly(t), nil
		}
	}
	return time.Time{}, err
}

func (n *Normalizer) optionalAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return currencyutils.ParseLocalized(value, n.numberFormat)
}

// indicatorSign finds the credit or debit token in an indicator cell. The
// cell may also hold the amount ("500.00 CR") or glue the token to it.
func (n *Normalizer) indicatorSign(cell string) (int, bool) {
	credit := strings.ToUpper(n.cfg.CreditIndicator)
	debit := strings.ToUpper(n.cfg.DebitIndicator)
	fields := strings.Fields(strings.ToUpper(cell))

	for _, f := range fields {
		switch f {
		case credit:
			return 1, true
		case debit:
			return -1, true
		}
	}
	for _, f := range fields {
		switch {
		case strings.HasSuffix(f, credit):
			return 1, true
		case strings.HasSuffix(f, debit):
			return -1, true
		}
	}
	return 0, false
}
