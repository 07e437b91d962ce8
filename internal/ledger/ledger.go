// Package ledger defines the book-side collaborator of reconciliation: the
// general ledger that owns bank-account transactions and balances.
package ledger

import (
	"context"
	"time"

	"fjacquet/bank-recon/internal/models"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest describes a book transaction created from a
// statement item, for example a bank fee nobody booked.
type CreateTransactionRequest struct {
	TemplateID  string
	AccountID   string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Reference   string
	Actor       string
}

// Ledger is the book side of a reconciliation.
type Ledger interface {
	// FindUnmatchedTransactions returns the account's transactions dated
	// inside window that are not reconciled, ordered by date then id.
	FindUnmatchedTransactions(ctx context.Context, accountID string, window models.DateRange) ([]models.BookTransaction, error)
	GetTransaction(ctx context.Context, id string) (*models.BookTransaction, error)
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.BookTransaction, error)
	// DeleteTransaction removes a transaction created by CreateTransaction
	// that could not be matched. Reconciled transactions are refused.
	DeleteTransaction(ctx context.Context, id string) error
	MarkTransactionReconciled(ctx context.Context, id string) error
	MarkTransactionUnreconciled(ctx context.Context, id string) error
	// BookBalance is the account balance including every transaction dated
	// on or before asOf.
	BookBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}
