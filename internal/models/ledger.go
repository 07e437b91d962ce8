package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookTransaction is a ledger-side cash movement on a bank account. Amount
// uses the bank account's perspective: positive is money in.
type BookTransaction struct {
	ID            string          `json:"id"`
	BankAccountID string          `json:"bank_account_id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference,omitempty"`
	Reconciled    bool            `json:"reconciled"`
}

// BankAccount is the registry view of a bank account.
type BankAccount struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	AccountNumber string `json:"account_number" yaml:"account_number"`
	BankType      string `json:"bank_type" yaml:"bank_type"`
	Currency      string `json:"currency" yaml:"currency"`
	GLAccountID   string `json:"gl_account_id,omitempty" yaml:"gl_account_id,omitempty"`
	Active        bool   `json:"active" yaml:"active"`
}
