package importer

import (
	"context"

	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"
)

// GetStatement returns a statement header.
func (s *Service) GetStatement(ctx context.Context, id string) (*models.BankStatement, error) {
	return s.store.GetStatement(ctx, id)
}

// ListStatements lists an account's statements, oldest import first.
func (s *Service) ListStatements(ctx context.Context, bankAccountID string) ([]models.BankStatement, error) {
	return s.store.ListStatements(ctx, bankAccountID)
}

// ListItems returns a statement's items in line order, narrowed by filter.
func (s *Service) ListItems(ctx context.Context, statementID string, filter models.ItemFilter) ([]models.BankStatementItem, error) {
	if _, err := s.store.GetStatement(ctx, statementID); err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx, statementID)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		if filter.Accepts(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// DeleteStatement removes a statement and its items. A statement that any
// reconciliation refers to is kept.
func (s *Service) DeleteStatement(ctx context.Context, id, actor string) error {
	err := s.store.WithTx(ctx, func(repo store.Repository) error {
		if _, err := repo.GetStatement(ctx, id); err != nil {
			return err
		}
		recs, err := repo.ListReconciliations(ctx, id)
		if err != nil {
			return err
		}
		if len(recs) > 0 {
			return reconerr.InvalidState(store.EntityStatement, id, "delete", "referenced by a reconciliation")
		}
		return repo.DeleteStatement(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Statement deleted", logging.F(logging.FieldStatementID, id))
	s.audit.Record(ctx, audit.Entry{
		Action:   audit.ActionDeleteStmt,
		Actor:    actor,
		Entity:   store.EntityStatement,
		EntityID: id,
		At:       s.now(),
	})
	return nil
}

// ParseItemFilter maps a status name (all, unmatched, matched, bank_only)
// to a filter.
func ParseItemFilter(status string) (models.ItemFilter, error) {
	switch status {
	case "", "all":
		return models.ItemFilter{}, nil
	case "unmatched":
		return models.ItemFilter{Kinds: []models.OutcomeKind{models.OutcomeUnmatched}}, nil
	case "matched":
		return models.ItemFilter{Kinds: []models.OutcomeKind{models.OutcomeMatched}}, nil
	case "bank_only":
		return models.ItemFilter{Kinds: []models.OutcomeKind{models.OutcomeBankOnly}}, nil
	}
	return models.ItemFilter{}, reconerr.Invalid("status", "must be one of all, unmatched, matched, bank_only")
}
