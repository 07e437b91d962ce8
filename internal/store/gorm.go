package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gorm is a Store backed by a gorm database.
type Gorm struct {
	db *gorm.DB
}

var _ Store = (*Gorm)(nil)

// NewGorm wraps an open database.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// OpenMySQL connects to MySQL. The DSN needs parseTime=true.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), initConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// AutoMigrate creates or updates the tables.
func (g *Gorm) AutoMigrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(
		&models.ParserConfig{},
		&models.BankStatement{},
		&models.BankStatementItem{},
		&models.BankReconciliation{},
		&models.ReconciliationEvent{},
	)
}

// WithTx implements Store.
func (g *Gorm) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func (g *Gorm) conn(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// translate maps gorm errors onto the reconerr kinds.
func translate(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return reconerr.NotFound(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &reconerr.ConflictError{Entity: entity, ID: id, Reason: "already exists"}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

// versionedUpdate writes every column of value where the stored version is
// still expected, then advances *version.
func (g *Gorm) versionedUpdate(ctx context.Context, value interface{}, version *int, entity, id string) error {
	expected := *version
	*version = expected + 1
	res := g.conn(ctx).Model(value).Where("version = ?", expected).Select("*").Updates(value)
	if res.Error != nil {
		*version = expected
		return translate(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		*version = expected
		var count int64
		if err := g.conn(ctx).Model(value).Where("id = ?", id).Count(&count).Error; err != nil {
			return translate(err, entity, id)
		}
		if count == 0 {
			return reconerr.NotFound(entity, id)
		}
		return &reconerr.ConflictError{Entity: entity, ID: id}
	}
	return nil
}

func (g *Gorm) CreateParserConfig(ctx context.Context, cfg *models.ParserConfig) error {
	return translate(g.conn(ctx).Create(cfg).Error, EntityParserConfig, cfg.ID)
}

func (g *Gorm) UpdateParserConfig(ctx context.Context, cfg *models.ParserConfig) error {
	return g.versionedUpdate(ctx, cfg, &cfg.Version, EntityParserConfig, cfg.ID)
}

func (g *Gorm) GetParserConfig(ctx context.Context, id string) (*models.ParserConfig, error) {
	var cfg models.ParserConfig
	if err := g.conn(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		return nil, translate(err, EntityParserConfig, id)
	}
	return &cfg, nil
}

func (g *Gorm) GetParserConfigByName(ctx context.Context, name string) (*models.ParserConfig, error) {
	var cfg models.ParserConfig
	if err := g.conn(ctx).First(&cfg, "name = ?", name).Error; err != nil {
		return nil, translate(err, EntityParserConfig, name)
	}
	return &cfg, nil
}

func (g *Gorm) ListParserConfigs(ctx context.Context) ([]models.ParserConfig, error) {
	var out []models.ParserConfig
	if err := g.conn(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, translate(err, EntityParserConfig, "*")
	}
	return out, nil
}

func (g *Gorm) DeleteParserConfig(ctx context.Context, id string) error {
	res := g.conn(ctx).Delete(&models.ParserConfig{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, EntityParserConfig, id)
	}
	if res.RowsAffected == 0 {
		return reconerr.NotFound(EntityParserConfig, id)
	}
	return nil
}

func (g *Gorm) CreateStatement(ctx context.Context, stmt *models.BankStatement, items []models.BankStatementItem) error {
	if err := g.conn(ctx).Create(stmt).Error; err != nil {
		return translate(err, EntityStatement, stmt.ID)
	}
	if len(items) == 0 {
		return nil
	}
	return translate(g.conn(ctx).CreateInBatches(items, 500).Error, EntityStatementItem, stmt.ID)
}

func (g *Gorm) GetStatement(ctx context.Context, id string) (*models.BankStatement, error) {
	var stmt models.BankStatement
	if err := g.conn(ctx).First(&stmt, "id = ?", id).Error; err != nil {
		return nil, translate(err, EntityStatement, id)
	}
	return &stmt, nil
}

func (g *Gorm) ListStatements(ctx context.Context, accountID string) ([]models.BankStatement, error) {
	q := g.conn(ctx).Order("imported_at, id")
	if accountID != "" {
		q = q.Where("bank_account_id = ?", accountID)
	}
	var out []models.BankStatement
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, EntityStatement, accountID)
	}
	return out, nil
}

func (g *Gorm) DeleteStatement(ctx context.Context, id string) error {
	if err := g.conn(ctx).Delete(&models.BankStatementItem{}, "statement_id = ?", id).Error; err != nil {
		return translate(err, EntityStatementItem, id)
	}
	res := g.conn(ctx).Delete(&models.BankStatement{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, EntityStatement, id)
	}
	if res.RowsAffected == 0 {
		return reconerr.NotFound(EntityStatement, id)
	}
	return nil
}

func (g *Gorm) ListItems(ctx context.Context, statementID string) ([]models.BankStatementItem, error) {
	var out []models.BankStatementItem
	err := g.conn(ctx).Where("statement_id = ?", statementID).Order("line_number, id").Find(&out).Error
	if err != nil {
		return nil, translate(err, EntityStatementItem, statementID)
	}
	return out, nil
}

func (g *Gorm) GetItem(ctx context.Context, id string) (*models.BankStatementItem, error) {
	var item models.BankStatementItem
	if err := g.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err, EntityStatementItem, id)
	}
	return &item, nil
}

func (g *Gorm) UpdateItem(ctx context.Context, item *models.BankStatementItem) error {
	return g.versionedUpdate(ctx, item, &item.Version, EntityStatementItem, item.ID)
}

func (g *Gorm) CreateReconciliation(ctx context.Context, rec *models.BankReconciliation) error {
	return translate(g.conn(ctx).Create(rec).Error, EntityReconciliation, rec.ID)
}

func (g *Gorm) GetReconciliation(ctx context.Context, id string) (*models.BankReconciliation, error) {
	var rec models.BankReconciliation
	if err := g.conn(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err, EntityReconciliation, id)
	}
	return &rec, nil
}

func (g *Gorm) ListReconciliations(ctx context.Context, statementID string) ([]models.BankReconciliation, error) {
	var out []models.BankReconciliation
	err := g.conn(ctx).Where("statement_id = ?", statementID).Order("created_at, id").Find(&out).Error
	if err != nil {
		return nil, translate(err, EntityReconciliation, statementID)
	}
	return out, nil
}

func (g *Gorm) UpdateReconciliation(ctx context.Context, rec *models.BankReconciliation) error {
	return g.versionedUpdate(ctx, rec, &rec.Version, EntityReconciliation, rec.ID)
}

func (g *Gorm) AppendEvent(ctx context.Context, event *models.ReconciliationEvent) error {
	err := g.conn(ctx).Create(event).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &reconerr.ConflictError{Entity: EntityEvent, ID: event.ID, Reason: "sequence already used"}
	}
	return translate(err, EntityEvent, event.ID)
}

func (g *Gorm) ListEvents(ctx context.Context, reconciliationID string) ([]models.ReconciliationEvent, error) {
	var out []models.ReconciliationEvent
	err := g.conn(ctx).Where("reconciliation_id = ?", reconciliationID).Order("seq").Find(&out).Error
	if err != nil {
		return nil, translate(err, EntityEvent, reconciliationID)
	}
	return out, nil
}
