package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the session lifecycle state.
type ReconciliationStatus string

const (
	ReconciliationOpen      ReconciliationStatus = "OPEN"
	ReconciliationCompleted ReconciliationStatus = "COMPLETED"
)

// BankReconciliation is a reconciliation session over one statement.
// BookBalance is the ledger balance at period end, captured at creation
// and again at completion;
// BankBalance is the statement's declared closing balance.
type BankReconciliation struct {
	ID            string               `json:"id" gorm:"primaryKey;size:36"`
	StatementID   string               `json:"statement_id" gorm:"index;size:36"`
	BankAccountID string               `json:"bank_account_id" gorm:"index;size:36"`
	PeriodStart   time.Time            `json:"period_start" gorm:"type:date"`
	PeriodEnd     time.Time            `json:"period_end" gorm:"type:date"`
	Status        ReconciliationStatus `json:"status" gorm:"size:20;index"`
	Notes         string               `json:"notes,omitempty" gorm:"size:1000"`
	BookBalance   decimal.Decimal      `json:"book_balance" gorm:"type:decimal(20,4)"`
	BankBalance   decimal.Decimal      `json:"bank_balance" gorm:"type:decimal(20,4)"`
	CreatedBy     string               `json:"created_by" gorm:"size:100"`
	CreatedAt     time.Time            `json:"created_at"`
	CompletedBy   string               `json:"completed_by,omitempty" gorm:"size:100"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Version       int                  `json:"version"`
}

// Period returns the session period.
func (r BankReconciliation) Period() DateRange {
	return DateRange{Start: r.PeriodStart, End: r.PeriodEnd}
}

// IsOpen reports whether the session accepts mutations.
func (r BankReconciliation) IsOpen() bool {
	return r.Status == ReconciliationOpen
}
