package reconciliation

import (
	"context"

	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"
)

// MarkBankOnly explains an UNMATCHED item that has no book counterpart,
// such as a bank charge.
func (s *Service) MarkBankOnly(ctx context.Context, id, itemID, notes, actor string) (*models.ReconciliationEvent, error) {
	ev, err := s.mutate(ctx, id, "mark bank-only", actor, func(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, _ models.Projection) (*change, error) {
		item, err := unmatchedItem(ctx, repo, rec, itemID, "mark bank-only")
		if err != nil {
			return nil, err
		}
		now := s.now()
		item.Outcome = models.BankOnly(notes)
		item.MatchedAt = &now
		item.MatchedBy = actor
		if err := repo.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
		return &change{event: &models.ReconciliationEvent{
			Kind:            models.EventBankOnly,
			StatementItemID: itemID,
			Notes:           notes,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Statement item marked bank-only",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldItemID, itemID))
	s.record(ctx, audit.ActionBankOnly, actor, id, map[string]interface{}{
		logging.FieldEventID: ev.ID,
		logging.FieldItemID:  itemID,
	})
	return ev, nil
}

// MarkBookOnly explains a book transaction that has no statement
// counterpart in this period, such as an uncleared cheque. The transaction
// stays unreconciled in the ledger.
func (s *Service) MarkBookOnly(ctx context.Context, id, transactionID, notes, actor string) (*models.ReconciliationEvent, error) {
	ev, err := s.mutate(ctx, id, "mark book-only", actor, func(ctx context.Context, _ store.Repository, rec *models.BankReconciliation, proj models.Projection) (*change, error) {
		if _, err := s.availableTransaction(ctx, rec, proj, transactionID, "mark book-only"); err != nil {
			return nil, err
		}
		return &change{event: &models.ReconciliationEvent{
			Kind:          models.EventBookOnly,
			TransactionID: transactionID,
			Notes:         notes,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Book transaction marked book-only",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldTransactionID, transactionID))
	s.record(ctx, audit.ActionBookOnly, actor, id, map[string]interface{}{
		logging.FieldEventID:       ev.ID,
		logging.FieldTransactionID: transactionID,
	})
	return ev, nil
}

// Unmatch voids a live MATCH entry. The item returns to UNMATCHED and the
// transaction to unreconciled; the MATCH entry stays in the log.
func (s *Service) Unmatch(ctx context.Context, id, eventID, actor string) (*models.ReconciliationEvent, error) {
	ev, err := s.void(ctx, id, eventID, "unmatch", actor, models.EventMatch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Match voided",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldEventID, eventID))
	s.record(ctx, audit.ActionUnmatch, actor, id, map[string]interface{}{
		logging.FieldEventID: eventID,
		"void_event_id":      ev.ID,
	})
	return ev, nil
}

// ClearException voids a live BANK_ONLY or BOOK_ONLY entry.
func (s *Service) ClearException(ctx context.Context, id, eventID, actor string) (*models.ReconciliationEvent, error) {
	ev, err := s.void(ctx, id, eventID, "clear exception", actor, models.EventBankOnly, models.EventBookOnly)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Exception cleared",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldEventID, eventID))
	s.record(ctx, audit.ActionClearException, actor, id, map[string]interface{}{
		logging.FieldEventID: eventID,
		"void_event_id":      ev.ID,
	})
	return ev, nil
}

// void appends a VOID for eventID, which must be live and of one of kinds,
// and reverts what the entry did.
func (s *Service) void(ctx context.Context, id, eventID, op, actor string, kinds ...models.EventKind) (*models.ReconciliationEvent, error) {
	return s.mutate(ctx, id, op, actor, func(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, proj models.Projection) (*change, error) {
		target, err := findEvent(ctx, repo, id, eventID)
		if err != nil {
			return nil, err
		}
		if !kindIn(target.Kind, kinds) {
			return nil, reconerr.InvalidState(store.EntityEvent, eventID, op, string(target.Kind))
		}
		if proj.Voided[eventID] {
			return nil, reconerr.InvalidState(store.EntityEvent, eventID, op, "already voided")
		}

		c := &change{event: &models.ReconciliationEvent{
			Kind:            models.EventVoid,
			VoidsEventID:    eventID,
			StatementItemID: target.StatementItemID,
			TransactionID:   target.TransactionID,
		}}
		if target.StatementItemID != "" {
			item, err := sessionItem(ctx, repo, rec, target.StatementItemID)
			if err != nil {
				return nil, err
			}
			item.Outcome = models.Unmatched()
			item.MatchedAt = nil
			item.MatchedBy = ""
			if err := repo.UpdateItem(ctx, item); err != nil {
				return nil, err
			}
		}
		if target.Kind == models.EventMatch {
			txID := target.TransactionID
			c.ledger = func(ctx context.Context) error {
				return s.ledger.MarkTransactionUnreconciled(ctx, txID)
			}
		}
		return c, nil
	})
}

// mutate runs one locked, transactional step.
func (s *Service) mutate(ctx context.Context, id, op, actor string, fn step) (*models.ReconciliationEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var ev *models.ReconciliationEvent
	err := s.locked(ctx, id, func() error {
		var err error
		ev, err = s.apply(ctx, id, op, actor, fn)
		return err
	})
	return ev, err
}

func findEvent(ctx context.Context, repo store.Repository, reconciliationID, eventID string) (*models.ReconciliationEvent, error) {
	events, err := repo.ListEvents(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == eventID {
			return &events[i], nil
		}
	}
	return nil, reconerr.NotFound(store.EntityEvent, eventID)
}

func kindIn(kind models.EventKind, kinds []models.EventKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
