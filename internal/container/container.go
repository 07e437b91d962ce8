// Package container wires the reconciliation services from configuration.
// Every component receives its collaborators through its constructor; the
// container is the only place that knows which implementation backs which
// interface.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fjacquet/bank-recon/internal/accounts"
	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/config"
	"fjacquet/bank-recon/internal/factory"
	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/importer"
	"fjacquet/bank-recon/internal/ledger"
	"fjacquet/bank-recon/internal/lock"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/matching"
	"fjacquet/bank-recon/internal/parser"
	"fjacquet/bank-recon/internal/parserconfig"
	"fjacquet/bank-recon/internal/reconciliation"
	"fjacquet/bank-recon/internal/report"
	"fjacquet/bank-recon/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container holds the wired application. Fields are private and exposed
// through getters so dependencies cannot be swapped after creation.
type Container struct {
	logger logging.Logger
	config *config.Config

	store    store.Store
	db       *gorm.DB
	redis    *redis.Client
	locker   lock.Locker
	accounts *accounts.Memory
	ledger   *ledger.Memory
	audit    audit.Sink
	parser   parser.Parser

	parserConfigs  *parserconfig.Service
	importer       *importer.Service
	reconciliation *reconciliation.Service
	reporter       *report.Reporter
	generator      *report.Generator
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger wires the application around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	c := &Container{logger: logging.OrDefault(logger), config: cfg}

	if err := c.openStore(); err != nil {
		return nil, err
	}
	if err := c.openLocker(); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.loadAccounts(); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.loadLedger(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.audit = audit.NewLogSink(c.logger)
	c.parser = factory.NewDispatcher(c.logger)
	c.parserConfigs = parserconfig.NewService(c.store, c.audit, c.logger)
	c.importer = importer.NewService(c.store, c.accounts, c.parser, c.audit, c.logger, importer.Options{
		MaxSkipRatio:     cfg.Parsing.MaxSkipRatio,
		BalanceTolerance: cfg.BalanceTolerance(),
	})
	c.reconciliation = reconciliation.NewService(c.store, c.ledger, c.accounts, c.locker, c.audit, c.logger, reconciliation.Options{
		DateToleranceDays: cfg.Matching.DateToleranceDays,
		Matching:          matching.Options{TieBreakByID: cfg.Matching.TieBreakByID},
		ReopenPolicy:      reconciliation.ReopenPolicy(cfg.Reconciliation.ReopenPolicy),
	})
	c.reporter = report.NewReporter(c.reconciliation, c.logger)
	c.generator = report.NewGenerator(c.logger)

	if err := c.seedParserConfigs(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Info("Container initialized successfully",
		logging.F("driver", cfg.Database.Driver),
		logging.F("lock_backend", cfg.Lock.Backend),
		logging.F("accounts", len(c.accounts.List())))
	return c, nil
}

func (c *Container) openStore() error {
	switch c.config.Database.Driver {
	case config.DriverMySQL:
		db, err := store.OpenMySQL(c.config.Database.DSN)
		if err != nil {
			return err
		}
		g := store.NewGorm(db)
		if err := g.AutoMigrate(context.Background()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		c.db = db
		c.store = g
	default:
		c.store = store.NewMemory()
	}
	return nil
}

func (c *Container) openLocker() error {
	if c.config.Lock.Backend != config.LockRedis {
		c.locker = lock.NewLocal()
		return nil
	}
	c.redis = lock.NewRedisClient(c.config.Lock.RedisAddress)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", c.config.Lock.RedisAddress, err)
	}
	c.locker = lock.NewRedis(c.redis, time.Duration(c.config.Lock.TTLSeconds)*time.Second, c.logger)
	return nil
}

func (c *Container) loadAccounts() error {
	path, err := fileutils.FindConfigFile(c.config.Files.Accounts)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("Bank account file not found, starting with an empty registry",
			logging.F(logging.FieldFile, c.config.Files.Accounts))
		c.accounts = accounts.NewMemory()
		return nil
	}
	if err != nil {
		return err
	}
	c.accounts, err = accounts.LoadYAML(path, c.logger)
	return err
}

func (c *Container) loadLedger() error {
	if c.config.Files.Ledger == "" {
		c.ledger = ledger.NewMemory()
		return nil
	}
	var err error
	c.ledger, err = ledger.LoadCSV(c.config.Files.Ledger, c.logger)
	return err
}

func (c *Container) seedParserConfigs() error {
	if c.config.Parsing.ConfigsFile == "" {
		return nil
	}
	_, err := c.parserConfigs.SeedFile(context.Background(), c.config.Parsing.ConfigsFile)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("Parser config file not found, no system configs seeded",
			logging.F(logging.FieldFile, c.config.Parsing.ConfigsFile))
		return nil
	}
	return err
}

// GetLogger returns the container's logger.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the configuration the container was built from.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetStore returns the repository backing every service.
func (c *Container) GetStore() store.Store { return c.store }

// GetAccounts returns the bank account registry.
func (c *Container) GetAccounts() *accounts.Memory { return c.accounts }

// GetLedger returns the book of record.
func (c *Container) GetLedger() *ledger.Memory { return c.ledger }

// GetParser returns the format dispatcher.
func (c *Container) GetParser() parser.Parser { return c.parser }

// GetParserConfigs returns the parser config registry.
func (c *Container) GetParserConfigs() *parserconfig.Service { return c.parserConfigs }

// GetImporter returns the statement importer.
func (c *Container) GetImporter() *importer.Service { return c.importer }

// GetReconciliation returns the session service.
func (c *Container) GetReconciliation() *reconciliation.Service { return c.reconciliation }

// GetReporter returns the summary reporter.
func (c *Container) GetReporter() *report.Reporter { return c.reporter }

// GetGenerator returns the report renderer.
func (c *Container) GetGenerator() *report.Generator { return c.generator }

// Close releases the database and Redis connections.
func (c *Container) Close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	c.logger.Info("Container closed")
	return errors.Join(errs...)
}
