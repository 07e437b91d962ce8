package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warning codes attached to imported statements.
const (
	WarningBalanceMismatch = "BALANCE_MISMATCH"
	WarningRowsSkipped     = "ROWS_SKIPPED"
	WarningOutOfPeriod     = "OUT_OF_PERIOD"
)

// Warning is a non-fatal import finding.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// BankStatement is one imported statement for a bank account and period.
// It owns its items.
type BankStatement struct {
	ID                  string           `json:"id" gorm:"primaryKey;size:36"`
	BankAccountID       string           `json:"bank_account_id" gorm:"index;size:36"`
	ParserConfigID      string           `json:"parser_config_id" gorm:"index;size:36"`
	ParserConfigName    string           `json:"parser_config_name" gorm:"size:100"`
	ParserConfigVersion int              `json:"parser_config_version"`
	PeriodStart         time.Time        `json:"period_start" gorm:"type:date"`
	PeriodEnd           time.Time        `json:"period_end" gorm:"type:date"`
	OpeningBalance      *decimal.Decimal `json:"opening_balance,omitempty" gorm:"type:decimal(20,4)"`
	ClosingBalance      *decimal.Decimal `json:"closing_balance,omitempty" gorm:"type:decimal(20,4)"`
	TotalItems          int              `json:"total_items"`
	TotalCredit         decimal.Decimal  `json:"total_credit" gorm:"type:decimal(20,4)"`
	TotalDebit          decimal.Decimal  `json:"total_debit" gorm:"type:decimal(20,4)"`
	SkippedRows         int              `json:"skipped_rows"`
	Warnings            []Warning        `json:"warnings,omitempty" gorm:"serializer:json"`
	OriginalFilename    string           `json:"original_filename,omitempty" gorm:"size:255"`
	ImportedAt          time.Time        `json:"imported_at"`
	ImportedBy          string           `json:"imported_by" gorm:"size:100"`
}

// Period returns the declared statement period.
func (s BankStatement) Period() DateRange {
	return DateRange{Start: s.PeriodStart, End: s.PeriodEnd}
}

// OutcomeKind is the reconciliation outcome of a statement item.
type OutcomeKind string

const (
	OutcomeUnmatched OutcomeKind = "UNMATCHED"
	OutcomeMatched   OutcomeKind = "MATCHED"
	OutcomeBankOnly  OutcomeKind = "BANK_ONLY"
)

// MatchStatus is the two-valued status shown for an item.
type MatchStatus string

const (
	StatusUnmatched MatchStatus = "UNMATCHED"
	StatusMatched   MatchStatus = "MATCHED"
)

// ItemOutcome is a tagged variant: TransactionID is set only for MATCHED,
// Notes only for BANK_ONLY. Use the constructors rather than literals.
type ItemOutcome struct {
	Kind          OutcomeKind `json:"kind" gorm:"size:20;index"`
	TransactionID string      `json:"transaction_id,omitempty" gorm:"size:36"`
	Notes         string      `json:"notes,omitempty" gorm:"size:500"`
}

// Unmatched is the initial outcome of every imported item.
func Unmatched() ItemOutcome {
	return ItemOutcome{Kind: OutcomeUnmatched}
}

// MatchedTo records a match against one book transaction.
func MatchedTo(transactionID string) ItemOutcome {
	return ItemOutcome{Kind: OutcomeMatched, TransactionID: transactionID}
}

// BankOnly records an item explained without a book counterpart.
func BankOnly(notes string) ItemOutcome {
	return ItemOutcome{Kind: OutcomeBankOnly, Notes: notes}
}

// BankStatementItem is one statement line. LineNumber is the row in the
// source file and is never renumbered.
type BankStatementItem struct {
	ID              string           `json:"id" gorm:"primaryKey;size:36"`
	StatementID     string           `json:"statement_id" gorm:"index;size:36"`
	LineNumber      int              `json:"line_number"`
	TransactionDate time.Time        `json:"transaction_date" gorm:"type:date"`
	Amount          decimal.Decimal  `json:"amount" gorm:"type:decimal(20,4)"`
	Description     string           `json:"description" gorm:"size:500"`
	Reference       string           `json:"reference,omitempty" gorm:"size:100"`
	Balance         *decimal.Decimal `json:"balance,omitempty" gorm:"type:decimal(20,4)"`
	RawLine         string           `json:"raw_line,omitempty" gorm:"type:text"`
	Outcome         ItemOutcome      `json:"outcome" gorm:"embedded;embeddedPrefix:outcome_"`
	MatchedAt       *time.Time       `json:"matched_at,omitempty"`
	MatchedBy       string           `json:"matched_by,omitempty" gorm:"size:100"`
	Version         int              `json:"version"`
}

// Status derives the visible match status from the outcome.
func (i BankStatementItem) Status() MatchStatus {
	if i.Outcome.Kind == OutcomeMatched {
		return StatusMatched
	}
	return StatusUnmatched
}

// NeedsAttention reports whether the item still blocks completion.
func (i BankStatementItem) NeedsAttention() bool {
	return i.Outcome.Kind == OutcomeUnmatched || i.Outcome.Kind == ""
}

// IsCredit reports money into the account.
func (i BankStatementItem) IsCredit() bool {
	return i.Amount.IsPositive()
}

// ItemFilter selects statement items by outcome. The zero value selects all.
type ItemFilter struct {
	Kinds []OutcomeKind
}

// Accepts reports whether item passes the filter.
func (f ItemFilter) Accepts(item BankStatementItem) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if item.Outcome.Kind == k {
			return true
		}
	}
	return false
}
