// Package reconciliation drives a reconciliation session over one imported
// statement: matching statement items with book transactions, recording
// exceptions, and the OPEN to COMPLETED lifecycle.
//
// Every change is an entry in the session's append-only event log. Entries
// are never edited; an undo appends a VOID entry. Mutations on one session
// are serialized with a lock.Locker and applied in a store transaction
// together with the log entry and a version bump of the session.
package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/accounts"
	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/ledger"
	"fjacquet/bank-recon/internal/lock"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/matching"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReopenPolicy decides whether a COMPLETED session may return to OPEN.
type ReopenPolicy string

const (
	ReopenLocked ReopenPolicy = "locked"
	ReopenAllow  ReopenPolicy = "allow"
)

const entityTransaction = "book transaction"

// Options are the session policies.
type Options struct {
	// DateToleranceDays widens the candidate window on both sides of the
	// statement period.
	DateToleranceDays int
	Matching          matching.Options
	ReopenPolicy      ReopenPolicy
}

// DefaultOptions returns the standard policies.
func DefaultOptions() Options {
	return Options{
		DateToleranceDays: 3,
		Matching:          matching.DefaultOptions(),
		ReopenPolicy:      ReopenLocked,
	}
}

// Service manages reconciliation sessions.
type Service struct {
	store    store.Store
	ledger   ledger.Ledger
	accounts accounts.Registry
	locker   lock.Locker
	audit    audit.Sink
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// NewService creates a session service. A nil locker serializes within the
// process only.
func NewService(st store.Store, book ledger.Ledger, registry accounts.Registry, locker lock.Locker, sink audit.Sink, logger logging.Logger, opts Options) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if opts.ReopenPolicy == "" {
		opts.ReopenPolicy = ReopenLocked
	}
	return &Service{
		store:    st,
		ledger:   book,
		accounts: registry,
		locker:   locker,
		audit:    audit.OrDiscard(sink),
		logger:   logging.OrDefault(logger),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest opens a session.
type CreateRequest struct {
	StatementID string
	Notes       string
	Actor       string
}

// Create opens the session over a statement. A statement has exactly one
// session; a completed one comes back through Reopen. The book balance at period end is captured from the ledger
// and the bank balance from the statement's closing balance.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.BankReconciliation, error) {
	if err := requireActor(req.Actor); err != nil {
		return nil, err
	}
	stmt, err := s.store.GetStatement(ctx, req.StatementID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.Get(ctx, stmt.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, reconerr.Invalid("bank_account_id", fmt.Sprintf("bank account %s is inactive", account.ID))
	}

	unlock, err := s.locker.Lock(ctx, "statement:"+stmt.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bookBalance, err := s.ledger.BookBalance(ctx, stmt.BankAccountID, stmt.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("error reading book balance: %w", err)
	}

	rec := &models.BankReconciliation{
		ID:            uuid.NewString(),
		StatementID:   stmt.ID,
		BankAccountID: stmt.BankAccountID,
		PeriodStart:   stmt.PeriodStart,
		PeriodEnd:     stmt.PeriodEnd,
		Status:        models.ReconciliationOpen,
		Notes:         req.Notes,
		BookBalance:   bookBalance,
		CreatedBy:     req.Actor,
		CreatedAt:     s.now(),
		Version:       1,
	}

	err = s.store.WithTx(ctx, func(repo store.Repository) error {
		existing, err := repo.ListReconciliations(ctx, stmt.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return reconerr.InvalidState(store.EntityStatement, stmt.ID, "open a reconciliation for",
				fmt.Sprintf("reconciliation %s already covers it (%s)", existing[0].ID, existing[0].Status))
		}
		items, err := repo.ListItems(ctx, stmt.ID)
		if err != nil {
			return err
		}
		rec.BankBalance = bankBalance(stmt, items)
		return repo.CreateReconciliation(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reconciliation created",
		logging.F(logging.FieldReconciliationID, rec.ID),
		logging.F(logging.FieldStatementID, stmt.ID),
		logging.F("book_balance", rec.BookBalance.String()),
		logging.F("bank_balance", rec.BankBalance.String()))
	s.record(ctx, audit.ActionCreate, req.Actor, rec.ID, map[string]interface{}{
		logging.FieldStatementID: stmt.ID,
	})
	return rec, nil
}

// bankBalance is the declared closing balance, or opening plus the item
// total when the statement carries no closing balance.
func bankBalance(stmt *models.BankStatement, items []models.BankStatementItem) decimal.Decimal {
	if stmt.ClosingBalance != nil {
		return *stmt.ClosingBalance
	}
	total := decimal.Zero
	if stmt.OpeningBalance != nil {
		total = *stmt.OpeningBalance
	}
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// Get returns a session.
func (s *Service) Get(ctx context.Context, id string) (*models.BankReconciliation, error) {
	return s.store.GetReconciliation(ctx, id)
}

// ListByStatement returns a statement's sessions, oldest first.
func (s *Service) ListByStatement(ctx context.Context, statementID string) ([]models.BankReconciliation, error) {
	if _, err := s.store.GetStatement(ctx, statementID); err != nil {
		return nil, err
	}
	return s.store.ListReconciliations(ctx, statementID)
}

// Events returns the full event log, voided entries included.
func (s *Service) Events(ctx context.Context, id string) ([]models.ReconciliationEvent, error) {
	if _, err := s.store.GetReconciliation(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

// Complete closes an OPEN session. Every statement item must be MATCHED or
// BANK_ONLY. The book balance is captured again so the completed session
// reports the ledger as it stood at completion.
func (s *Service) Complete(ctx context.Context, id, actor string) (*models.BankReconciliation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var completed *models.BankReconciliation
	err := s.locked(ctx, id, func() error {
		return s.store.WithTx(ctx, func(repo store.Repository) error {
			rec, err := openReconciliation(ctx, repo, id, "complete")
			if err != nil {
				return err
			}
			items, err := repo.ListItems(ctx, rec.StatementID)
			if err != nil {
				return err
			}
			pending := 0
			for _, item := range items {
				if item.NeedsAttention() {
					pending++
				}
			}
			if pending > 0 {
				return reconerr.InvalidState(store.EntityReconciliation, id, "complete",
					fmt.Sprintf("%d statement items are still unmatched", pending))
			}
			balance, err := s.ledger.BookBalance(ctx, rec.BankAccountID, rec.PeriodEnd)
			if err != nil {
				return fmt.Errorf("error reading book balance: %w", err)
			}
			now := s.now()
			rec.BookBalance = balance
			rec.Status = models.ReconciliationCompleted
			rec.CompletedBy = actor
			rec.CompletedAt = &now
			if err := repo.UpdateReconciliation(ctx, rec); err != nil {
				return err
			}
			completed = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reconciliation completed",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldActor, actor))
	s.record(ctx, audit.ActionComplete, actor, id, nil)
	return completed, nil
}

// Reopen returns a COMPLETED session to OPEN when the reopen policy allows
// it and no other session on the statement is open.
func (s *Service) Reopen(ctx context.Context, id, actor string) (*models.BankReconciliation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if s.opts.ReopenPolicy != ReopenAllow {
		return nil, reconerr.InvalidState(store.EntityReconciliation, id, "reopen",
			fmt.Sprintf("reopen policy is %s", s.opts.ReopenPolicy))
	}
	var reopened *models.BankReconciliation
	err := s.locked(ctx, id, func() error {
		return s.store.WithTx(ctx, func(repo store.Repository) error {
			rec, err := repo.GetReconciliation(ctx, id)
			if err != nil {
				return err
			}
			if rec.Status != models.ReconciliationCompleted {
				return reconerr.InvalidState(store.EntityReconciliation, id, "reopen", string(rec.Status))
			}
			rec.Status = models.ReconciliationOpen
			rec.CompletedBy = ""
			rec.CompletedAt = nil
			if err := repo.UpdateReconciliation(ctx, rec); err != nil {
				return err
			}
			reopened = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reconciliation reopened",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldActor, actor))
	s.record(ctx, audit.ActionReopen, actor, id, nil)
	return reopened, nil
}

// change is the outcome of one step: the log entry to append and an
// optional ledger update run last inside the store transaction, so a
// ledger failure discards the store changes.
type change struct {
	event  *models.ReconciliationEvent
	ledger func(ctx context.Context) error
}

// step computes one change against the current session state.
type step func(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, proj models.Projection) (*change, error)

func (s *Service) locked(ctx context.Context, id string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, lock.ReconciliationKey(id))
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// apply runs fn in a store transaction on the OPEN session id, appends the
// resulting entry with the next sequence number and bumps the session
// version. The caller holds the session lock.
func (s *Service) apply(ctx context.Context, id, op, actor string, fn step) (*models.ReconciliationEvent, error) {
	var appended *models.ReconciliationEvent
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		rec, err := openReconciliation(ctx, repo, id, op)
		if err != nil {
			return err
		}
		events, err := repo.ListEvents(ctx, id)
		if err != nil {
			return err
		}
		proj := models.Project(events)

		c, err := fn(ctx, repo, rec, proj)
		if err != nil {
			return err
		}
		ev := c.event
		ev.ID = uuid.NewString()
		ev.ReconciliationID = id
		ev.Seq = proj.NextSeq
		ev.Actor = actor
		ev.At = s.now()
		if err := repo.AppendEvent(ctx, ev); err != nil {
			return err
		}
		if err := repo.UpdateReconciliation(ctx, rec); err != nil {
			return err
		}
		if c.ledger != nil {
			if err := c.ledger(ctx); err != nil {
				return fmt.Errorf("ledger update failed: %w", err)
			}
		}
		appended = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

func openReconciliation(ctx context.Context, repo store.Repository, id, op string) (*models.BankReconciliation, error) {
	rec, err := repo.GetReconciliation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsOpen() {
		return nil, reconerr.InvalidState(store.EntityReconciliation, id, op, string(rec.Status))
	}
	return rec, nil
}

// sessionItem loads a statement item and checks it belongs to the session.
func sessionItem(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, itemID string) (*models.BankStatementItem, error) {
	item, err := repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.StatementID != rec.StatementID {
		return nil, reconerr.Invalid("statement_item_id",
			fmt.Sprintf("item %s is not on statement %s", itemID, rec.StatementID))
	}
	return item, nil
}

// unmatchedItem is sessionItem restricted to items that still need attention.
func unmatchedItem(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, itemID, op string) (*models.BankStatementItem, error) {
	item, err := sessionItem(ctx, repo, rec, itemID)
	if err != nil {
		return nil, err
	}
	if !item.NeedsAttention() {
		return nil, reconerr.InvalidState(store.EntityStatementItem, itemID, op, string(item.Outcome.Kind))
	}
	return item, nil
}

// availableTransaction loads a book transaction of the session's account
// that is neither reconciled in the ledger nor claimed by a live entry.
func (s *Service) availableTransaction(ctx context.Context, rec *models.BankReconciliation, proj models.Projection, txID, op string) (*models.BookTransaction, error) {
	tx, err := s.ledger.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.BankAccountID != rec.BankAccountID {
		return nil, reconerr.Invalid("transaction_id",
			fmt.Sprintf("transaction %s belongs to another bank account", txID))
	}
	if e, ok := proj.ByTransaction[txID]; ok {
		return nil, reconerr.InvalidState(entityTransaction, txID, op, fmt.Sprintf("already %s", strings.ToLower(string(e.Kind))))
	}
	if tx.Reconciled {
		return nil, reconerr.InvalidState(entityTransaction, txID, op, "already reconciled")
	}
	return tx, nil
}

func (s *Service) record(ctx context.Context, action, actor, id string, details map[string]interface{}) {
	s.audit.Record(ctx, audit.Entry{
		Action:   action,
		Actor:    actor,
		Entity:   store.EntityReconciliation,
		EntityID: id,
		Details:  details,
		At:       s.now(),
	})
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return reconerr.Invalid("actor", "is required")
	}
	return nil
}
