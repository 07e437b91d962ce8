package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// runContract exercises the behaviour every Store must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("parser configs", func(t *testing.T) {
		s := newStore(t)
		cfg := &models.ParserConfig{ID: uuid.NewString(), Name: "bca-" + uuid.NewString()[:8], BankType: "BCA", Format: models.FormatDelimited, DateFormat: "dd/MM/yyyy"}
		require.NoError(t, s.CreateParserConfig(ctx, cfg))

		dup := *cfg
		dup.ID = uuid.NewString()
		assert.True(t, errors.Is(s.CreateParserConfig(ctx, &dup), reconerr.ErrConflict))

		got, err := s.GetParserConfigByName(ctx, cfg.Name)
		require.NoError(t, err)
		assert.Equal(t, cfg.ID, got.ID)

		stale := *got
		got.Description = "edited"
		require.NoError(t, s.UpdateParserConfig(ctx, got))
		assert.Equal(t, 1, got.Version)
		assert.True(t, errors.Is(s.UpdateParserConfig(ctx, &stale), reconerr.ErrConflict))

		require.NoError(t, s.DeleteParserConfig(ctx, cfg.ID))
		_, err = s.GetParserConfig(ctx, cfg.ID)
		assert.True(t, errors.Is(err, reconerr.ErrNotFound))
	})

	t.Run("statements and items", func(t *testing.T) {
		s := newStore(t)
		stmt, items := sampleStatement()
		require.NoError(t, s.CreateStatement(ctx, stmt, items))

		got, err := s.ListItems(ctx, stmt.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int{1, 2, 5}, []int{got[0].LineNumber, got[1].LineNumber, got[2].LineNumber})

		listed, err := s.ListStatements(ctx, stmt.BankAccountID)
		require.NoError(t, err)
		require.Len(t, listed, 1)

		item := got[0]
		stale := item
		item.Outcome = models.MatchedTo("tx-1")
		require.NoError(t, s.UpdateItem(ctx, &item))
		assert.Equal(t, 1, item.Version)

		err = s.UpdateItem(ctx, &stale)
		var conflict *reconerr.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, 0, stale.Version, "failed update must not advance the version")

		reread, err := s.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeMatched, reread.Outcome.Kind)

		require.NoError(t, s.DeleteStatement(ctx, stmt.ID))
		_, err = s.GetItem(ctx, item.ID)
		assert.True(t, errors.Is(err, reconerr.ErrNotFound))
	})

	t.Run("events", func(t *testing.T) {
		s := newStore(t)
		rec := &models.BankReconciliation{ID: uuid.NewString(), StatementID: uuid.NewString(), Status: models.ReconciliationOpen, CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateReconciliation(ctx, rec))

		first := &models.ReconciliationEvent{ID: uuid.NewString(), ReconciliationID: rec.ID, Seq: 1, Kind: models.EventMatch, At: time.Now().UTC()}
		require.NoError(t, s.AppendEvent(ctx, first))
		clash := &models.ReconciliationEvent{ID: uuid.NewString(), ReconciliationID: rec.ID, Seq: 1, Kind: models.EventVoid, At: time.Now().UTC()}
		assert.True(t, errors.Is(s.AppendEvent(ctx, clash), reconerr.ErrConflict))

		second := &models.ReconciliationEvent{ID: uuid.NewString(), ReconciliationID: rec.ID, Seq: 2, Kind: models.EventVoid, VoidsEventID: first.ID, At: time.Now().UTC()}
		require.NoError(t, s.AppendEvent(ctx, second))

		events, err := s.ListEvents(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, first.ID, events[0].ID)
		assert.Equal(t, second.ID, events[1].ID)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		s := newStore(t)
		stmt, items := sampleStatement()
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(repo Repository) error {
			if err := repo.CreateStatement(ctx, stmt, items); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = s.GetStatement(ctx, stmt.ID)
		assert.True(t, errors.Is(err, reconerr.ErrNotFound))

		require.NoError(t, s.WithTx(ctx, func(repo Repository) error {
			return repo.CreateStatement(ctx, stmt, items)
		}))
		_, err = s.GetStatement(ctx, stmt.ID)
		assert.NoError(t, err)
	})
}

func sampleStatement() (*models.BankStatement, []models.BankStatementItem) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	closing := decimal.RequireFromString("100")
	stmt := &models.BankStatement{
		ID:             uuid.NewString(),
		BankAccountID:  uuid.NewString(),
		PeriodStart:    day,
		PeriodEnd:      day.AddDate(0, 1, -1),
		ClosingBalance: &closing,
		TotalItems:     3,
		Warnings:       []models.Warning{{Code: models.WarningRowsSkipped, Message: "1 row skipped"}},
		ImportedAt:     time.Now().UTC(),
		ImportedBy:     "tester",
	}
	var items []models.BankStatementItem
	for _, line := range []int{5, 1, 2} {
		items = append(items, models.BankStatementItem{
			ID:              uuid.NewString(),
			StatementID:     stmt.ID,
			LineNumber:      line,
			TransactionDate: day,
			Amount:          decimal.NewFromInt(int64(line * 10)),
			Outcome:         models.Unmatched(),
		})
	}
	return stmt, items
}

func TestMemory(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	stmt, items := sampleStatement()
	require.NoError(t, s.CreateStatement(ctx, stmt, items))

	got, err := s.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	got.Description = "mutated"

	again, err := s.GetItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, again.Description)
}

// TestGorm runs the contract against MySQL when RECON_TEST_MYSQL_DSN is set.
func TestGorm(t *testing.T) {
	dsn := os.Getenv("RECON_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RECON_TEST_MYSQL_DSN not set")
	}
	db, err := OpenMySQL(dsn)
	require.NoError(t, err)
	g := NewGorm(db)
	require.NoError(t, g.AutoMigrate(context.Background()))

	runContract(t, func(t *testing.T) Store { return g })
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, EntityStatement, "s1"))
	assert.True(t, errors.Is(translate(gorm.ErrRecordNotFound, EntityStatement, "s1"), reconerr.ErrNotFound))
	assert.True(t, errors.Is(translate(gorm.ErrDuplicatedKey, EntityStatement, "s1"), reconerr.ErrConflict))

	other := errors.New("connection reset")
	err := translate(other, EntityStatement, "s1")
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "statement s1")
}

func TestInitConfig(t *testing.T) {
	cfg := initConfig()
	assert.True(t, cfg.TranslateError)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}
