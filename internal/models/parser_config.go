package models

import (
	"time"
)

// StatementFormat is the physical shape of a statement file.
type StatementFormat string

const (
	FormatDelimited  StatementFormat = "delimited"
	FormatFixedWidth StatementFormat = "fixed_width"
	FormatXLSX       StatementFormat = "xlsx"
	FormatXLS        StatementFormat = "xls"
	FormatCAMT053    StatementFormat = "camt053"
)

// SignConvention describes how a statement expresses money direction.
type SignConvention string

const (
	// SignSigned: one amount column, negative means money out.
	SignSigned SignConvention = "signed"
	// SignDebitCredit: separate debit and credit columns; net = credit - debit.
	SignDebitCredit SignConvention = "debit_credit"
	// SignIndicator: unsigned amount plus a CR/DB indicator column.
	SignIndicator SignConvention = "indicator"
)

// Column locates one logical field in a row. Delimited and spreadsheet
// statements use Name (resolved against the header row) or the zero-based
// Index; fixed-width statements use the zero-based rune offset Start and Width.
type Column struct {
	Index int    `json:"index" yaml:"index" validate:"min=0"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Start int    `json:"start,omitempty" yaml:"start,omitempty" validate:"min=0"`
	Width int    `json:"width,omitempty" yaml:"width,omitempty" validate:"min=0"`
}

// Col is shorthand for an index-addressed column.
func Col(index int) *Column {
	return &Column{Index: index}
}

// NamedCol is shorthand for a header-addressed column.
func NamedCol(name string) *Column {
	return &Column{Name: name}
}

// Span is shorthand for a fixed-width column.
func Span(start, width int) *Column {
	return &Column{Start: start, Width: width}
}

// ColumnMap maps logical statement fields to columns. Nil means unmapped.
type ColumnMap struct {
	Date        *Column `json:"date,omitempty" yaml:"date,omitempty"`
	Description *Column `json:"description,omitempty" yaml:"description,omitempty"`
	Reference   *Column `json:"reference,omitempty" yaml:"reference,omitempty"`
	Amount      *Column `json:"amount,omitempty" yaml:"amount,omitempty"`
	Debit       *Column `json:"debit,omitempty" yaml:"debit,omitempty"`
	Credit      *Column `json:"credit,omitempty" yaml:"credit,omitempty"`
	Balance     *Column `json:"balance,omitempty" yaml:"balance,omitempty"`
	Indicator   *Column `json:"indicator,omitempty" yaml:"indicator,omitempty"`
}

// ParserConfig is a named, per-bank description of how to read one
// statement shape. Edits only affect future imports: statements record the
// name and version they were imported with.
type ParserConfig struct {
	ID                string          `json:"id" yaml:"id" gorm:"primaryKey;size:36"`
	Name              string          `json:"name" yaml:"name" gorm:"uniqueIndex;size:100" validate:"required,max=100"`
	BankType          string          `json:"bank_type" yaml:"bank_type" gorm:"index;size:30" validate:"required,max=30"`
	Description       string          `json:"description,omitempty" yaml:"description,omitempty" gorm:"size:500"`
	Format            StatementFormat `json:"format" yaml:"format" gorm:"size:20" validate:"required,oneof=delimited fixed_width xlsx xls camt053"`
	Columns           ColumnMap       `json:"columns" yaml:"columns" gorm:"serializer:json"`
	SignConvention    SignConvention  `json:"sign_convention" yaml:"sign_convention" gorm:"size:20" validate:"omitempty,oneof=signed debit_credit indicator"`
	NegateAmount      bool            `json:"negate_amount,omitempty" yaml:"negate_amount,omitempty"`
	CreditIndicator   string          `json:"credit_indicator,omitempty" yaml:"credit_indicator,omitempty" gorm:"size:10"`
	DebitIndicator    string          `json:"debit_indicator,omitempty" yaml:"debit_indicator,omitempty" gorm:"size:10"`
	DateFormat        string          `json:"date_format" yaml:"date_format" gorm:"size:50" validate:"required_unless=Format camt053"`
	DecimalSeparator  string          `json:"decimal_separator" yaml:"decimal_separator" gorm:"size:1" validate:"omitempty,len=1"`
	ThousandSeparator string          `json:"thousand_separator" yaml:"thousand_separator" gorm:"size:1" validate:"omitempty,max=1"`
	Delimiter         string          `json:"delimiter" yaml:"delimiter" gorm:"size:2"`
	SkipHeaderRows    int             `json:"skip_header_rows" yaml:"skip_header_rows" validate:"min=0,max=50"`
	Encoding          string          `json:"encoding" yaml:"encoding" gorm:"size:20"`
	Sheet             string          `json:"sheet,omitempty" yaml:"sheet,omitempty" gorm:"size:100"`
	Active            bool            `json:"active" yaml:"active"`
	System            bool            `json:"system" yaml:"system"`
	InUse             bool            `json:"in_use" yaml:"-"`
	Version           int             `json:"version" yaml:"-"`
	CreatedAt         time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt         time.Time       `json:"updated_at" yaml:"-"`
}

// WithDefaults returns a copy with unset options filled in.
func (c ParserConfig) WithDefaults() ParserConfig {
	if c.SignConvention == "" {
		switch {
		case c.Columns.Debit != nil || c.Columns.Credit != nil:
			c.SignConvention = SignDebitCredit
		case c.Columns.Indicator != nil:
			c.SignConvention = SignIndicator
		default:
			c.SignConvention = SignSigned
		}
	}
	if c.DecimalSeparator == "" {
		c.DecimalSeparator = "."
		if c.ThousandSeparator == "" {
			c.ThousandSeparator = ","
		}
	}
	if c.Delimiter == "" && c.Format == FormatDelimited {
		c.Delimiter = ","
	}
	if c.Encoding == "" {
		c.Encoding = "UTF-8"
	}
	if c.CreditIndicator == "" {
		c.CreditIndicator = "CR"
	}
	if c.DebitIndicator == "" {
		c.DebitIndicator = "DB"
	}
	return c
}

// ColumnFor returns the column mapped to a logical field name.
func (c ParserConfig) ColumnFor(field string) *Column {
	switch field {
	case "date":
		return c.Columns.Date
	case "description":
		return c.Columns.Description
	case "reference":
		return c.Columns.Reference
	case "amount":
		return c.Columns.Amount
	case "debit":
		return c.Columns.Debit
	case "credit":
		return c.Columns.Credit
	case "balance":
		return c.Columns.Balance
	case "indicator":
		return c.Columns.Indicator
	}
	return nil
}

// RequiredColumnNames lists the logical fields that must be mapped for the
// config's sign convention.
func (c ParserConfig) RequiredColumnNames() []string {
	switch c.WithDefaults().SignConvention {
	case SignDebitCredit:
		return []string{"date", "debit", "credit"}
	case SignIndicator:
		return []string{"date", "amount", "indicator"}
	default:
		return []string{"date", "amount"}
	}
}
