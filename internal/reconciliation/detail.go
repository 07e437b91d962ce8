package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
)

// MatchedPair is a live MATCH with both sides.
type MatchedPair struct {
	Event       models.ReconciliationEvent `json:"event"`
	Item        models.BankStatementItem   `json:"item"`
	Transaction *models.BookTransaction    `json:"transaction"`
}

// BookOnlyEntry is a live BOOK_ONLY mark with its transaction.
type BookOnlyEntry struct {
	Event       models.ReconciliationEvent `json:"event"`
	Transaction *models.BookTransaction    `json:"transaction"`
}

// Detail is the bucketed view of a session.
type Detail struct {
	Reconciliation models.BankReconciliation  `json:"reconciliation"`
	Statement      models.BankStatement       `json:"statement"`
	Matched        []MatchedPair              `json:"matched"`
	Unmatched      []models.BankStatementItem `json:"unmatched"`
	BankOnly       []models.BankStatementItem `json:"bank_only"`
	BookOnly       []BookOnlyEntry            `json:"book_only"`
	// OutstandingBook holds the unreconciled ledger transactions dated in
	// the period that no live entry claims.
	OutstandingBook []models.BookTransaction `json:"outstanding_book"`
	// Events is the live log.
	Events []models.ReconciliationEvent `json:"events"`
}

// Detail assembles the session buckets. It reads and never changes state.
// An open session reports the ledger's current book balance; a completed
// one keeps the balance frozen at completion.
func (s *Service) Detail(ctx context.Context, id string) (*Detail, error) {
	rec, err := s.store.GetReconciliation(ctx, id)
	if err != nil {
		return nil, err
	}
	stmt, err := s.store.GetStatement(ctx, rec.StatementID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, rec.StatementID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	proj := models.Project(events)

	if rec.IsOpen() {
		balance, err := s.ledger.BookBalance(ctx, rec.BankAccountID, rec.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("error reading book balance: %w", err)
		}
		rec.BookBalance = balance
	}

	d := &Detail{Reconciliation: *rec, Statement: *stmt, Events: proj.Live}
	for _, item := range items {
		switch item.Outcome.Kind {
		case models.OutcomeMatched:
			ev, ok := proj.ByItem[item.ID]
			if !ok || ev.Kind != models.EventMatch {
				return nil, fmt.Errorf("item %s is matched without a live match entry", item.ID)
			}
			tx, err := s.lookup(ctx, ev.TransactionID)
			if err != nil {
				return nil, err
			}
			d.Matched = append(d.Matched, MatchedPair{Event: ev, Item: item, Transaction: tx})
		case models.OutcomeBankOnly:
			d.BankOnly = append(d.BankOnly, item)
		default:
			d.Unmatched = append(d.Unmatched, item)
		}
	}

	for _, ev := range proj.LiveOfKind(models.EventBookOnly) {
		tx, err := s.lookup(ctx, ev.TransactionID)
		if err != nil {
			return nil, err
		}
		d.BookOnly = append(d.BookOnly, BookOnlyEntry{Event: ev, Transaction: tx})
	}

	outstanding, err := s.ledger.FindUnmatchedTransactions(ctx, rec.BankAccountID, rec.Period())
	if err != nil {
		return nil, err
	}
	for _, tx := range outstanding {
		if _, claimed := proj.ByTransaction[tx.ID]; !claimed {
			d.OutstandingBook = append(d.OutstandingBook, tx)
		}
	}
	return d, nil
}

// lookup returns nil for transactions the ledger no longer knows.
func (s *Service) lookup(ctx context.Context, id string) (*models.BookTransaction, error) {
	tx, err := s.ledger.GetTransaction(ctx, id)
	if errors.Is(err, reconerr.ErrNotFound) {
		s.logger.Warn("Book transaction referenced by reconciliation not found in ledger",
			logging.F(logging.FieldTransactionID, id))
		return nil, nil
	}
	return tx, err
}
