package reconciliation

import (
	"context"
	"errors"
	"strings"

	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/ledger"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/matching"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/store"
)

// AutoMatch matches the session's UNMATCHED items against the ledger and
// returns the number of matches applied. Each match is applied on its own;
// one that fails is logged and skipped. Running it again without new data
// applies nothing.
func (s *Service) AutoMatch(ctx context.Context, id, actor string) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	log := s.logger.WithFields(
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldActor, actor),
	)

	applied := 0
	err := s.locked(ctx, id, func() error {
		rec, err := openReconciliation(ctx, s.store, id, "auto-match")
		if err != nil {
			return err
		}
		items, err := s.store.ListItems(ctx, rec.StatementID)
		if err != nil {
			return err
		}
		candidates, err := s.candidates(ctx, rec)
		if err != nil {
			return err
		}

		result := matching.Match(items, candidates, s.opts.Matching)
		for _, amb := range result.Ambiguous {
			log.Info("Ambiguous candidates left for manual review",
				logging.F(logging.FieldItemID, amb.ItemID),
				logging.F(logging.FieldLine, amb.LineNumber),
				logging.F(logging.FieldCount, len(amb.TransactionIDs)))
		}

		for _, a := range result.Assignments {
			_, err := s.apply(ctx, id, "auto-match", actor, s.matchStep(a.ItemID, a.TransactionID, models.MatchAuto, "auto-match", actor))
			if err != nil {
				log.WithError(err).Warn("Auto-match assignment skipped",
					logging.F(logging.FieldItemID, a.ItemID),
					logging.F(logging.FieldTransactionID, a.TransactionID))
				continue
			}
			applied++
		}
		log.Info("Auto-match completed",
			logging.F(logging.FieldCount, applied),
			logging.F("ambiguous", len(result.Ambiguous)),
			logging.F("candidates", len(candidates)))
		return nil
	})
	if err != nil {
		return applied, err
	}
	if applied > 0 {
		s.record(ctx, audit.ActionAutoMatch, actor, id, map[string]interface{}{logging.FieldCount: applied})
	}
	return applied, nil
}

// candidates returns the ledger transactions in the widened period that no
// live entry of the session claims.
func (s *Service) candidates(ctx context.Context, rec *models.BankReconciliation) ([]models.BookTransaction, error) {
	window := rec.Period().Extend(s.opts.DateToleranceDays)
	txs, err := s.ledger.FindUnmatchedTransactions(ctx, rec.BankAccountID, window)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	proj := models.Project(events)
	out := make([]models.BookTransaction, 0, len(txs))
	for _, tx := range txs {
		if _, claimed := proj.ByTransaction[tx.ID]; !claimed {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ManualMatch pairs an item with a transaction chosen by the user. Amounts
// need not be equal, so split and partial payments can be matched.
func (s *Service) ManualMatch(ctx context.Context, id, itemID, transactionID, actor string) (*models.ReconciliationEvent, error) {
	return s.match(ctx, id, itemID, transactionID, models.MatchManual, actor)
}

func (s *Service) match(ctx context.Context, id, itemID, transactionID string, matchType models.MatchType, actor string) (*models.ReconciliationEvent, error) {
	ev, err := s.mutate(ctx, id, "match", actor, s.matchStep(itemID, transactionID, matchType, "match", actor))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Statement item matched",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldItemID, itemID),
		logging.F(logging.FieldTransactionID, transactionID),
		logging.F(logging.FieldMatchType, matchType))
	s.record(ctx, audit.ActionMatch, actor, id, map[string]interface{}{
		logging.FieldEventID:       ev.ID,
		logging.FieldItemID:        itemID,
		logging.FieldTransactionID: transactionID,
		logging.FieldMatchType:     string(matchType),
	})
	return ev, nil
}

// matchStep marks the item MATCHED to the transaction and the transaction
// reconciled in the ledger.
func (s *Service) matchStep(itemID, transactionID string, matchType models.MatchType, op, actor string) step {
	return func(ctx context.Context, repo store.Repository, rec *models.BankReconciliation, proj models.Projection) (*change, error) {
		item, err := unmatchedItem(ctx, repo, rec, itemID, op)
		if err != nil {
			return nil, err
		}
		if _, err := s.availableTransaction(ctx, rec, proj, transactionID, op); err != nil {
			return nil, err
		}

		now := s.now()
		item.Outcome = models.MatchedTo(transactionID)
		item.MatchedAt = &now
		item.MatchedBy = actor
		if err := repo.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
		return &change{
			event: &models.ReconciliationEvent{
				Kind:            models.EventMatch,
				StatementItemID: itemID,
				TransactionID:   transactionID,
				MatchType:       matchType,
			},
			ledger: func(ctx context.Context) error {
				return s.ledger.MarkTransactionReconciled(ctx, transactionID)
			},
		}, nil
	}
}

// CreateTransactionFromStatementItem books a new ledger transaction for an
// UNMATCHED item, for example a bank fee, and matches the two. An empty
// description uses the item's.
func (s *Service) CreateTransactionFromStatementItem(ctx context.Context, id, itemID, templateID, description, actor string) (*models.BookTransaction, *models.ReconciliationEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	var (
		created *models.BookTransaction
		ev      *models.ReconciliationEvent
	)
	err := s.locked(ctx, id, func() error {
		rec, err := openReconciliation(ctx, s.store, id, "create transaction")
		if err != nil {
			return err
		}
		item, err := unmatchedItem(ctx, s.store, rec, itemID, "create transaction")
		if err != nil {
			return err
		}
		if strings.TrimSpace(description) == "" {
			description = item.Description
		}
		created, err = s.ledger.CreateTransaction(ctx, ledger.CreateTransactionRequest{
			TemplateID:  templateID,
			AccountID:   rec.BankAccountID,
			Date:        item.TransactionDate,
			Amount:      item.Amount,
			Description: description,
			Reference:   item.Reference,
			Actor:       actor,
		})
		if err != nil {
			return err
		}
		ev, err = s.apply(ctx, id, "create transaction", actor, s.matchStep(itemID, created.ID, models.MatchCreated, "create transaction", actor))
		if err != nil {
			logger := s.logger.WithError(err).WithFields(
				logging.F(logging.FieldTransactionID, created.ID),
				logging.F(logging.FieldItemID, itemID))
			// The ledger is not part of the store transaction; take the
			// new transaction back out.
			if derr := s.ledger.DeleteTransaction(ctx, created.ID); derr != nil {
				logger.Error("Created book transaction could not be matched nor removed",
					logging.F("delete_error", derr.Error()))
				return errors.Join(err, derr)
			}
			logger.Warn("Created book transaction could not be matched and was removed")
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Book transaction created from statement item",
		logging.F(logging.FieldReconciliationID, id),
		logging.F(logging.FieldItemID, itemID),
		logging.F(logging.FieldTransactionID, created.ID))
	s.record(ctx, audit.ActionCreateTx, actor, id, map[string]interface{}{
		logging.FieldEventID:       ev.ID,
		logging.FieldItemID:        itemID,
		logging.FieldTransactionID: created.ID,
		"template_id":              templateID,
	})
	return created, ev, nil
}

// CandidatePreview ranks the transactions an item could be matched with,
// exact amounts first.
func (s *Service) CandidatePreview(ctx context.Context, id, itemID string) ([]matching.Candidate, error) {
	rec, err := s.store.GetReconciliation(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := sessionItem(ctx, s.store, rec, itemID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates(ctx, rec)
	if err != nil {
		return nil, err
	}
	return matching.Rank(*item, candidates), nil
}
