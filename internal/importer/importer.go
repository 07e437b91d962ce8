// Package importer turns raw statement files into persisted statements.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/accounts"
	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/currencyutils"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"
	"fjacquet/bank-recon/internal/parserconfig"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options are the import policies.
type Options struct {
	// MaxSkipRatio aborts an import whose skipped/considered row ratio is
	// above it. Zero means DefaultMaxSkipRatio.
	MaxSkipRatio float64
	// BalanceTolerance is the accepted difference between the parsed net
	// and closing minus opening.
	BalanceTolerance decimal.Decimal
}

// DefaultMaxSkipRatio is the skip ratio used when Options leaves it zero.
const DefaultMaxSkipRatio = 0.2

// ImportRequest describes one statement file to import. A zero period is
// derived from the parsed line dates. Declared balances override balances
// found in the file.
type ImportRequest struct {
	BankAccountID   string
	ParserConfigID  string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	DeclaredOpening *decimal.Decimal
	DeclaredClosing *decimal.Decimal
	Filename        string
	Raw             []byte
	Actor           string
}

// ImportResult is a successful import.
type ImportResult struct {
	Statement *models.BankStatement
	Items     []models.BankStatementItem
	Warnings  []models.Warning
	Skipped   []models.SkippedRow
}

// Service imports statements.
type Service struct {
	store    store.Store
	accounts accounts.Registry
	parser   parser.Parser
	audit    audit.Sink
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// NewService creates an importer.
func NewService(st store.Store, registry accounts.Registry, p parser.Parser, sink audit.Sink, logger logging.Logger, opts Options) *Service {
	if opts.MaxSkipRatio <= 0 {
		opts.MaxSkipRatio = DefaultMaxSkipRatio
	}
	return &Service{
		store:    st,
		accounts: registry,
		parser:   p,
		audit:    audit.OrDiscard(sink),
		logger:   logging.OrDefault(logger),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Preview parses raw with a stored config without importing anything.
func (s *Service) Preview(ctx context.Context, parserConfigID string, raw []byte) (*models.ParseResult, error) {
	cfg, err := s.store.GetParserConfig(ctx, parserConfigID)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(*cfg, raw)
}

// ImportStatement validates the request, parses the file and stores the
// statement with its items in one transaction. Nothing is written when any
// step fails.
func (s *Service) ImportStatement(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	start := time.Now()
	log := s.logger.WithFields(
		logging.F(logging.FieldBankAccountID, req.BankAccountID),
		logging.F(logging.FieldFile, req.Filename),
	)

	period, err := requestPeriod(req)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Get(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, reconerr.Invalid("bank_account_id", fmt.Sprintf("bank account %s is inactive", account.ID))
	}

	cfg, err := s.store.GetParserConfig(ctx, req.ParserConfigID)
	if err != nil {
		return nil, err
	}
	if !cfg.Active {
		return nil, reconerr.Invalid("parser_config_id", fmt.Sprintf("parser config %s is inactive", cfg.Name))
	}
	if strings.TrimSpace(req.Actor) == "" {
		return nil, reconerr.Invalid("actor", "is required")
	}
	log = log.WithField(logging.FieldParserConfig, cfg.Name)

	parsed, err := s.parser.Parse(*cfg, req.Raw)
	if err != nil {
		log.WithError(err).Warn("Statement parse failed")
		return nil, err
	}

	if ratio := parsed.SkipRatio(); ratio > s.opts.MaxSkipRatio {
		return nil, reconerr.Invalid("file", fmt.Sprintf("%d of %d rows could not be read (%.0f%%, limit %.0f%%)",
			len(parsed.Skipped), parsed.DataRows(), ratio*100, s.opts.MaxSkipRatio*100))
	}
	if len(parsed.Lines) == 0 {
		return nil, reconerr.Invalid("file", "no statement lines could be read")
	}
	if !period.Valid() {
		period = parsed.Period()
	}

	stmt := &models.BankStatement{
		ID:                  uuid.NewString(),
		BankAccountID:       account.ID,
		ParserConfigID:      cfg.ID,
		ParserConfigName:    cfg.Name,
		ParserConfigVersion: cfg.Version,
		PeriodStart:         period.Start,
		PeriodEnd:           period.End,
		OpeningBalance:      firstSet(req.DeclaredOpening, parsed.OpeningBalance),
		ClosingBalance:      firstSet(req.DeclaredClosing, parsed.ClosingBalance),
		TotalCredit:         decimal.Zero,
		TotalDebit:          decimal.Zero,
		SkippedRows:         len(parsed.Skipped),
		OriginalFilename:    req.Filename,
		ImportedAt:          s.now(),
		ImportedBy:          req.Actor,
	}

	items := make([]models.BankStatementItem, 0, len(parsed.Lines))
	for _, line := range parsed.Lines {
		if line.Amount.IsPositive() {
			stmt.TotalCredit = stmt.TotalCredit.Add(line.Amount)
		} else {
			stmt.TotalDebit = stmt.TotalDebit.Add(line.Amount.Abs())
		}
		items = append(items, models.BankStatementItem{
			ID:              uuid.NewString(),
			StatementID:     stmt.ID,
			LineNumber:      line.LineNumber,
			TransactionDate: dateutils.DateOnly(line.Date),
			Amount:          line.Amount,
			Description:     line.Description,
			Reference:       line.Reference,
			Balance:         line.Balance,
			RawLine:         line.Raw,
			Outcome:         models.Unmatched(),
			Version:         1,
		})
	}
	stmt.TotalItems = len(items)
	stmt.Warnings = s.warnings(stmt, parsed)

	err = s.store.WithTx(ctx, func(repo store.Repository) error {
		if err := repo.CreateStatement(ctx, stmt, items); err != nil {
			return err
		}
		current, err := repo.GetParserConfig(ctx, cfg.ID)
		if err != nil {
			return err
		}
		return parserconfig.MarkInUse(ctx, repo, current)
	})
	if err != nil {
		log.WithError(err).Error("Failed to store statement")
		return nil, err
	}

	log.Info("Statement imported",
		logging.F(logging.FieldStatementID, stmt.ID),
		logging.F(logging.FieldCount, len(items)),
		logging.F(logging.FieldSkipped, len(parsed.Skipped)),
		logging.F("warnings", len(stmt.Warnings)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	s.audit.Record(ctx, audit.Entry{
		Action:   audit.ActionImport,
		Actor:    req.Actor,
		Entity:   store.EntityStatement,
		EntityID: stmt.ID,
		Details: map[string]interface{}{
			logging.FieldBankAccountID: account.ID,
			logging.FieldParserConfig:  cfg.Name,
			logging.FieldCount:         len(items),
			logging.FieldSkipped:       len(parsed.Skipped),
		},
		At: stmt.ImportedAt,
	})

	return &ImportResult{
		Statement: stmt,
		Items:     items,
		Warnings:  stmt.Warnings,
		Skipped:   parsed.Skipped,
	}, nil
}

func requestPeriod(req ImportRequest) (models.DateRange, error) {
	if req.PeriodStart.IsZero() && req.PeriodEnd.IsZero() {
		return models.DateRange{}, nil
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return models.DateRange{}, reconerr.Invalid("period", "both period start and end are required")
	}
	period := models.NewDateRange(req.PeriodStart, req.PeriodEnd)
	if !period.Valid() {
		return models.DateRange{}, reconerr.Invalid("period", fmt.Sprintf("start %s is after end %s",
			dateutils.ToISODate(period.Start), dateutils.ToISODate(period.End)))
	}
	return period, nil
}

func (s *Service) warnings(stmt *models.BankStatement, parsed *models.ParseResult) []models.Warning {
	var out []models.Warning
	if n := len(parsed.Skipped); n > 0 {
		out = append(out, models.Warning{
			Code:    models.WarningRowsSkipped,
			Message: fmt.Sprintf("%d rows could not be read and were not imported", n),
		})
	}
	if stmt.OpeningBalance != nil && stmt.ClosingBalance != nil {
		expected := stmt.ClosingBalance.Sub(*stmt.OpeningBalance)
		net := parsed.Net()
		if !currencyutils.WithinTolerance(net, expected, s.opts.BalanceTolerance) {
			out = append(out, models.Warning{
				Code: models.WarningBalanceMismatch,
				Message: fmt.Sprintf("statement lines sum to %s but closing minus opening is %s (difference %s)",
					net.String(), expected.String(), net.Sub(expected).String()),
			})
		}
	}
	period := stmt.Period()
	for _, line := range parsed.Lines {
		if !period.Contains(line.Date) {
			out = append(out, models.Warning{
				Code:    models.WarningOutOfPeriod,
				Message: fmt.Sprintf("line dated %s is outside the statement period %s", dateutils.ToISODate(line.Date), period),
				Line:    line.LineNumber,
			})
		}
	}
	return out
}

func firstSet(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			d := *v
			return &d
		}
	}
	return nil
}
