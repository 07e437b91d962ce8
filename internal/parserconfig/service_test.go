package parserconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `configs:
  - name: BCA CSV
    bank_type: BCA
    format: delimited
    delimiter: ","
    skip_header_rows: 1
    date_format: dd/MM/yyyy
    columns:
      date: {name: Tanggal}
      description: {name: Keterangan}
      debit: {name: Debet}
      credit: {name: Kredit}
    active: true
  - name: ISO CAMT.053
    bank_type: ISO20022
    format: camt053
    active: true
`

func newService(t *testing.T) (*Service, *audit.Recorder, store.Store) {
	t.Helper()
	repo := store.NewMemory()
	rec := audit.NewRecorder(nil)
	return NewService(repo, rec, logging.NewMockLogger()), rec, repo
}

func userConfig(name string) models.ParserConfig {
	return models.ParserConfig{
		Name:           name,
		BankType:       "MANDIRI",
		Format:         models.FormatDelimited,
		Delimiter:      ";",
		DateFormat:     "yyyy-MM-dd",
		SkipHeaderRows: 1,
		Columns: models.ColumnMap{
			Date:   models.Col(0),
			Amount: models.Col(2),
		},
		Active: true,
	}
}

func TestService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := newService(t)

	in := userConfig("Mandiri semicolon")
	in.System = true
	created, err := svc.Create(ctx, in, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.System)
	assert.Equal(t, 1, created.Version)

	_, err = svc.Create(ctx, userConfig("Mandiri semicolon"), "alice")
	assert.ErrorIs(t, err, reconerr.ErrConflict)

	bad := userConfig("Broken")
	bad.Columns.Amount = nil
	_, err = svc.Create(ctx, bad, "alice")
	assert.ErrorIs(t, err, reconerr.ErrValidation)

	edit := *created
	edit.DateFormat = "dd.MM.yyyy"
	updated, err := svc.Update(ctx, edit, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "dd.MM.yyyy", updated.DateFormat)

	_, err = svc.Update(ctx, edit, "bob")
	assert.ErrorIs(t, err, reconerr.ErrConflict, "stale version")

	assert.Equal(t, []string{audit.ActionConfigChange, audit.ActionConfigChange}, rec.Actions())
}

func TestService_Lookups(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	a, err := svc.Create(ctx, userConfig("A"), "alice")
	require.NoError(t, err)
	b := userConfig("B")
	b.BankType = "bca"
	_, err = svc.Create(ctx, b, "alice")
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, a.ID, "alice")
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].Name)

	byBank, err := svc.FindByBankType(ctx, "MANDIRI")
	require.NoError(t, err)
	assert.Empty(t, byBank, "inactive configs are not offered")

	byBank, err = svc.FindByBankType(ctx, "BCA")
	require.NoError(t, err)
	assert.Len(t, byBank, 1)

	got, err := svc.Resolve(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	got, err = svc.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	reactivated, err := svc.Activate(ctx, a.ID, "alice")
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _, repo := newService(t)

	_, err := svc.Seed(ctx, []byte(seedYAML))
	require.NoError(t, err)
	system, err := svc.GetByName(ctx, "BCA CSV")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, system.ID, "alice"), reconerr.ErrInvalidState)

	used, err := svc.Create(ctx, userConfig("Used"), "alice")
	require.NoError(t, err)
	require.NoError(t, MarkInUse(ctx, repo, used))
	assert.ErrorIs(t, svc.Delete(ctx, used.ID, "alice"), reconerr.ErrInvalidState)

	free, err := svc.Create(ctx, userConfig("Free"), "alice")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, free.ID, "alice"))
	_, err = svc.Get(ctx, free.ID)
	assert.ErrorIs(t, err, reconerr.ErrNotFound)
}

func TestService_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	n, err := svc.Seed(ctx, []byte(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Seed(ctx, []byte(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cfg, err := svc.GetByName(ctx, "BCA CSV")
	require.NoError(t, err)
	assert.True(t, cfg.System)
	assert.Equal(t, "Debet", cfg.Columns.Debit.Name)

	_, err = svc.Seed(ctx, []byte("configs:\n  - name: x\n    format: delimited\n"))
	assert.Error(t, err)
}

func TestService_SeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser_configs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0600))

	svc, _, _ := newService(t)
	n, err := svc.SeedFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.SeedFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
