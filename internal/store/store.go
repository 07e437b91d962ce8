// Package store persists parser configs, statements, reconciliations and
// their event logs. Memory is used by tests and the one-shot CLI; Gorm backs
// the MySQL deployment.
//
// Every Update method is version checked: the caller passes the entity as
// it last read it, the stored version must still equal entity.Version, and
// on success the stored and passed versions are both incremented. A stale
// version yields a reconerr.ConflictError.
package store

import (
	"context"

	"fjacquet/bank-recon/internal/models"
)

// Entity names used in errors.
const (
	EntityParserConfig   = "parser config"
	EntityStatement      = "statement"
	EntityStatementItem  = "statement item"
	EntityReconciliation = "reconciliation"
	EntityEvent          = "reconciliation event"
)

// Repository is the set of persistence operations.
type Repository interface {
	CreateParserConfig(ctx context.Context, cfg *models.ParserConfig) error
	UpdateParserConfig(ctx context.Context, cfg *models.ParserConfig) error
	GetParserConfig(ctx context.Context, id string) (*models.ParserConfig, error)
	GetParserConfigByName(ctx context.Context, name string) (*models.ParserConfig, error)
	ListParserConfigs(ctx context.Context) ([]models.ParserConfig, error)
	DeleteParserConfig(ctx context.Context, id string) error

	// CreateStatement stores a statement header with its items.
	CreateStatement(ctx context.Context, stmt *models.BankStatement, items []models.BankStatementItem) error
	GetStatement(ctx context.Context, id string) (*models.BankStatement, error)
	// ListStatements lists statements for an account, all when accountID is "".
	ListStatements(ctx context.Context, accountID string) ([]models.BankStatement, error)
	// DeleteStatement deletes a statement and its items.
	DeleteStatement(ctx context.Context, id string) error
	// ListItems returns a statement's items in line-number order.
	ListItems(ctx context.Context, statementID string) ([]models.BankStatementItem, error)
	GetItem(ctx context.Context, id string) (*models.BankStatementItem, error)
	UpdateItem(ctx context.Context, item *models.BankStatementItem) error

	CreateReconciliation(ctx context.Context, rec *models.BankReconciliation) error
	GetReconciliation(ctx context.Context, id string) (*models.BankReconciliation, error)
	// ListReconciliations lists a statement's sessions, oldest first.
	ListReconciliations(ctx context.Context, statementID string) ([]models.BankReconciliation, error)
	UpdateReconciliation(ctx context.Context, rec *models.BankReconciliation) error

	// AppendEvent adds an entry to a session log. (ReconciliationID, Seq)
	// is unique; a duplicate yields a ConflictError.
	AppendEvent(ctx context.Context, event *models.ReconciliationEvent) error
	// ListEvents returns a session log in Seq order.
	ListEvents(ctx context.Context, reconciliationID string) ([]models.ReconciliationEvent, error)
}

// Store is a Repository that can run a group of operations atomically.
type Store interface {
	Repository

	// WithTx runs fn in a transaction. Changes made through the Repository
	// passed to fn are committed when fn returns nil and discarded otherwise.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}
