// Package parserconfig manages the registry of per-bank statement parser
// configurations.
package parserconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"
	"fjacquet/bank-recon/internal/validation"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Service is the parser config registry.
type Service struct {
	repo   store.Repository
	audit  audit.Sink
	logger logging.Logger
	now    func() time.Time
}

// NewService creates a registry backed by repo.
func NewService(repo store.Repository, sink audit.Sink, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  audit.OrDiscard(sink),
		logger: logging.OrDefault(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new user config. The System flag is never honoured
// from callers.
func (s *Service) Create(ctx context.Context, cfg models.ParserConfig, actor string) (*models.ParserConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := validation.ParserConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.System = false
	return s.create(ctx, cfg, actor)
}

func (s *Service) create(ctx context.Context, cfg models.ParserConfig, actor string) (*models.ParserConfig, error) {
	if _, err := s.repo.GetParserConfigByName(ctx, cfg.Name); err == nil {
		return nil, &reconerr.ConflictError{Entity: store.EntityParserConfig, ID: cfg.Name, Reason: "name already in use"}
	} else if !errors.Is(err, reconerr.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	cfg.InUse = false
	cfg.Version = 1
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := s.repo.CreateParserConfig(ctx, &cfg); err != nil {
		return nil, err
	}

	s.logger.Info("Parser config created",
		logging.F(logging.FieldParserConfig, cfg.Name),
		logging.F(logging.FieldFormat, cfg.Format))
	s.record(ctx, "create", actor, cfg)
	return &cfg, nil
}

// Update replaces a config's parsing rules. cfg.Version must be the version
// the caller read. Statements already imported keep the name and version
// they were parsed with; the change applies to future imports only.
func (s *Service) Update(ctx context.Context, cfg models.ParserConfig, actor string) (*models.ParserConfig, error) {
	stored, err := s.repo.GetParserConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := validation.ParserConfig(cfg); err != nil {
		return nil, err
	}

	cfg.System = stored.System
	cfg.InUse = stored.InUse
	cfg.CreatedAt = stored.CreatedAt
	cfg.UpdatedAt = s.now()
	if err := s.repo.UpdateParserConfig(ctx, &cfg); err != nil {
		return nil, err
	}
	s.logger.Info("Parser config updated",
		logging.F(logging.FieldParserConfig, cfg.Name),
		logging.F("version", cfg.Version))
	s.record(ctx, "update", actor, cfg)
	return &cfg, nil
}

// Get returns a config by id.
func (s *Service) Get(ctx context.Context, id string) (*models.ParserConfig, error) {
	return s.repo.GetParserConfig(ctx, id)
}

// GetByName returns a config by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*models.ParserConfig, error) {
	return s.repo.GetParserConfigByName(ctx, name)
}

// Resolve looks a config up by id, then by name.
func (s *Service) Resolve(ctx context.Context, idOrName string) (*models.ParserConfig, error) {
	cfg, err := s.repo.GetParserConfig(ctx, idOrName)
	if err == nil || !errors.Is(err, reconerr.ErrNotFound) {
		return cfg, err
	}
	return s.repo.GetParserConfigByName(ctx, idOrName)
}

// List returns every config ordered by name.
func (s *Service) List(ctx context.Context) ([]models.ParserConfig, error) {
	return s.repo.ListParserConfigs(ctx)
}

// ListActive returns the configs offered for new imports.
func (s *Service) ListActive(ctx context.Context) ([]models.ParserConfig, error) {
	return s.filter(ctx, func(c models.ParserConfig) bool { return c.Active })
}

// FindByBankType returns the active configs for one bank type, compared
// case-insensitively.
func (s *Service) FindByBankType(ctx context.Context, bankType string) ([]models.ParserConfig, error) {
	return s.filter(ctx, func(c models.ParserConfig) bool {
		return c.Active && strings.EqualFold(c.BankType, bankType)
	})
}

func (s *Service) filter(ctx context.Context, keep func(models.ParserConfig) bool) ([]models.ParserConfig, error) {
	all, err := s.repo.ListParserConfigs(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ParserConfig
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Activate makes a config available for imports.
func (s *Service) Activate(ctx context.Context, id, actor string) (*models.ParserConfig, error) {
	return s.setActive(ctx, id, true, actor)
}

// Deactivate withdraws a config from new imports. Existing statements are
// unaffected.
func (s *Service) Deactivate(ctx context.Context, id, actor string) (*models.ParserConfig, error) {
	return s.setActive(ctx, id, false, actor)
}

func (s *Service) setActive(ctx context.Context, id string, active bool, actor string) (*models.ParserConfig, error) {
	cfg, err := s.repo.GetParserConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.Active == active {
		return cfg, nil
	}
	cfg.Active = active
	cfg.UpdatedAt = s.now()
	if err := s.repo.UpdateParserConfig(ctx, cfg); err != nil {
		return nil, err
	}
	op := "deactivate"
	if active {
		op = "activate"
	}
	s.logger.Info("Parser config "+op+"d", logging.F(logging.FieldParserConfig, cfg.Name))
	s.record(ctx, op, actor, *cfg)
	return cfg, nil
}

// MarkInUse flags a config as referenced by an imported statement.
func MarkInUse(ctx context.Context, repo store.Repository, cfg *models.ParserConfig) error {
	if cfg.InUse {
		return nil
	}
	cfg.InUse = true
	return repo.UpdateParserConfig(ctx, cfg)
}

// Delete removes a config. System configs and configs referenced by
// statements cannot be deleted; deactivate them instead.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	cfg, err := s.repo.GetParserConfig(ctx, id)
	if err != nil {
		return err
	}
	if cfg.System {
		return reconerr.InvalidState(store.EntityParserConfig, cfg.Name, "delete", "system config")
	}
	if cfg.InUse {
		return reconerr.InvalidState(store.EntityParserConfig, cfg.Name, "delete", "in use by imported statements, deactivate it instead")
	}
	if err := s.repo.DeleteParserConfig(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Parser config deleted", logging.F(logging.FieldParserConfig, cfg.Name))
	s.record(ctx, "delete", actor, *cfg)
	return nil
}

func (s *Service) record(ctx context.Context, op, actor string, cfg models.ParserConfig) {
	s.audit.Record(ctx, audit.Entry{
		Action:   audit.ActionConfigChange,
		Actor:    actor,
		Entity:   store.EntityParserConfig,
		EntityID: cfg.ID,
		Details:  map[string]interface{}{logging.FieldOperation: op, "name": cfg.Name, "version": cfg.Version},
		At:       s.now(),
	})
}

// seedFile is the YAML layout of a seed file.
type seedFile struct {
	Configs []models.ParserConfig `yaml:"configs"`
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) ([]models.ParserConfig, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing parser config YAML: %w", err)
	}
	return doc.Configs, nil
}

// Seed registers the system configs in data, skipping names that already
// exist. It returns the number of configs created.
func (s *Service) Seed(ctx context.Context, data []byte) (int, error) {
	configs, err := ParseSeed(data)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, cfg := range configs {
		cfg.Name = strings.TrimSpace(cfg.Name)
		if err := validation.ParserConfig(cfg); err != nil {
			return created, fmt.Errorf("seed config %q: %w", cfg.Name, err)
		}
		if _, err := s.repo.GetParserConfigByName(ctx, cfg.Name); err == nil {
			continue
		} else if !errors.Is(err, reconerr.ErrNotFound) {
			return created, err
		}
		if cfg.ID == "" {
			cfg.ID = uuid.NewString()
		}
		cfg.System = true
		if _, err := s.create(ctx, cfg, "system"); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedFile seeds from a file found with fileutils.FindConfigFile.
func (s *Service) SeedFile(ctx context.Context, filename string) (int, error) {
	path, err := fileutils.FindConfigFile(filename)
	if err != nil {
		return 0, fmt.Errorf("parser config file %s: %w", filename, err)
	}
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := s.Seed(ctx, data)
	if err != nil {
		return n, err
	}
	s.logger.Info("Seeded parser configs",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, n))
	return n, nil
}
