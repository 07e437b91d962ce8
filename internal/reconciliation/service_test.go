package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fjacquet/bank-recon/internal/accounts"
	"fjacquet/bank-recon/internal/audit"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/ledger"
	"fjacquet/bank-recon/internal/lock"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *Service
	store  *store.Memory
	ledger *ledger.Memory
	audit  *audit.Recorder
	logger *logging.MockLogger
}

func march(day int) models.BookTransaction {
	return models.BookTransaction{BankAccountID: "acc-1", Date: dateutils.Date(2024, 3, day)}
}

func bookTx(id string, day int, amount string) models.BookTransaction {
	tx := march(day)
	tx.ID = id
	tx.Amount = decimal.RequireFromString(amount)
	return tx
}

func stmtItem(id string, line, day int, amount, ref string) models.BankStatementItem {
	return models.BankStatementItem{
		ID:              id,
		StatementID:     "stmt-1",
		LineNumber:      line,
		TransactionDate: dateutils.Date(2024, 3, day),
		Amount:          decimal.RequireFromString(amount),
		Description:     "line " + id,
		Reference:       ref,
		Outcome:         models.Unmatched(),
		Version:         1,
	}
}

func newFixture(t *testing.T, opts Options, items ...models.BankStatementItem) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	if items == nil {
		items = []models.BankStatementItem{
			stmtItem("i-1", 1, 10, "-500000", "INV-1"),
			stmtItem("i-2", 2, 11, "-500000", ""),
			stmtItem("i-3", 3, 31, "-25", ""),
			stmtItem("i-4", 4, 15, "1000", ""),
		}
	}
	closing := decimal.RequireFromString("-999025")
	require.NoError(t, st.CreateStatement(ctx, &models.BankStatement{
		ID:             "stmt-1",
		BankAccountID:  "acc-1",
		PeriodStart:    dateutils.Date(2024, 3, 1),
		PeriodEnd:      dateutils.Date(2024, 3, 31),
		ClosingBalance: &closing,
		TotalItems:     len(items),
	}, items))
	require.NoError(t, st.CreateStatement(ctx, &models.BankStatement{
		ID:            "stmt-2",
		BankAccountID: "acc-1",
		PeriodStart:   dateutils.Date(2024, 4, 1),
		PeriodEnd:     dateutils.Date(2024, 4, 30),
	}, []models.BankStatementItem{{ID: "other-item", StatementID: "stmt-2", LineNumber: 1, Outcome: models.Unmatched(), Version: 1}}))

	book := ledger.NewMemory(
		bookTx("A", 10, "-500000"),
		bookTx("B", 11, "-500000"),
		bookTx("C", 14, "1000"),
		bookTx("D", 20, "-300"),
		models.BookTransaction{ID: "E", BankAccountID: "acc-2", Date: dateutils.Date(2024, 3, 31), Amount: decimal.NewFromInt(-25)},
	)
	registry := accounts.NewMemory(
		models.BankAccount{ID: "acc-1", Name: "Operating", Active: true},
		models.BankAccount{ID: "acc-2", Name: "Savings", Active: true},
	)
	logger := logging.NewMockLogger()
	rec := audit.NewRecorder(nil)
	return &fixture{
		svc:    NewService(st, book, registry, lock.NewLocal(), rec, logger, opts),
		store:  st,
		ledger: book,
		audit:  rec,
		logger: logger,
	}
}

func (f *fixture) open(t *testing.T) *models.BankReconciliation {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), CreateRequest{StatementID: "stmt-1", Actor: "alice"})
	require.NoError(t, err)
	return rec
}

func (f *fixture) item(t *testing.T, id string) *models.BankStatementItem {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *fixture) reconciled(t *testing.T, id string) bool {
	t.Helper()
	tx, err := f.ledger.GetTransaction(context.Background(), id)
	require.NoError(t, err)
	return tx.Reconciled
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	rec := f.open(t)
	assert.Equal(t, models.ReconciliationOpen, rec.Status)
	assert.True(t, rec.BookBalance.Equal(decimal.RequireFromString("-999300")), "book %s", rec.BookBalance)
	assert.True(t, rec.BankBalance.Equal(decimal.RequireFromString("-999025")), "bank %s", rec.BankBalance)
	assert.Equal(t, dateutils.Date(2024, 3, 31), rec.PeriodEnd)

	_, err := f.svc.Create(ctx, CreateRequest{StatementID: "stmt-1", Actor: "bob"})
	assert.ErrorIs(t, err, reconerr.ErrInvalidState, "one session per statement")

	_, err = f.svc.Create(ctx, CreateRequest{StatementID: "missing", Actor: "bob"})
	assert.ErrorIs(t, err, reconerr.ErrNotFound)

	_, err = f.svc.Create(ctx, CreateRequest{StatementID: "stmt-1"})
	assert.ErrorIs(t, err, reconerr.ErrValidation)

	other, err := f.svc.Create(ctx, CreateRequest{StatementID: "stmt-2", Actor: "bob"})
	require.NoError(t, err)
	assert.True(t, other.BankBalance.IsZero(), "no declared balances and no amounts")

	list, err := f.svc.ListByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, []string{audit.ActionCreate, audit.ActionCreate}, f.audit.Actions())
}

func TestCreate_InactiveAccount(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	f.svc.accounts = accounts.NewMemory(models.BankAccount{ID: "acc-1", Active: false})

	_, err := f.svc.Create(context.Background(), CreateRequest{StatementID: "stmt-1", Actor: "alice"})
	assert.ErrorIs(t, err, reconerr.ErrValidation)
}

func TestAutoMatch_ByDateProximityAndIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	n, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, models.MatchedTo("A"), f.item(t, "i-1").Outcome)
	assert.Equal(t, models.MatchedTo("B"), f.item(t, "i-2").Outcome)
	assert.Equal(t, models.MatchedTo("C"), f.item(t, "i-4").Outcome)
	assert.Equal(t, models.OutcomeUnmatched, f.item(t, "i-3").Outcome.Kind)
	assert.Equal(t, "alice", f.item(t, "i-1").MatchedBy)
	assert.True(t, f.reconciled(t, "A"))
	assert.False(t, f.reconciled(t, "D"))

	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
		assert.Equal(t, models.EventMatch, ev.Kind)
		assert.Equal(t, models.MatchAuto, ev.MatchType)
	}

	again, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, again)
	events, err = f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	current, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Version+3, current.Version)
}

func TestAutoMatch_LowestLineWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions(),
		stmtItem("late", 9, 20, "-300", ""),
		stmtItem("early", 2, 20, "-300", ""),
	)
	rec := f.open(t)

	n, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.MatchedTo("D"), f.item(t, "early").Outcome)
	assert.Equal(t, models.OutcomeUnmatched, f.item(t, "late").Outcome.Kind)
}

func TestAutoMatch_ToleranceWindow(t *testing.T) {
	ctx := context.Background()
	items := []models.BankStatementItem{stmtItem("i-1", 1, 31, "-777", "")}

	f := newFixture(t, Options{DateToleranceDays: 0, Matching: DefaultOptions().Matching}, items...)
	f.ledger.Add(models.BookTransaction{ID: "late", BankAccountID: "acc-1", Date: dateutils.Date(2024, 4, 2), Amount: decimal.NewFromInt(-777)})
	rec := f.open(t)
	n, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)

	f2 := newFixture(t, DefaultOptions(), items...)
	f2.ledger.Add(models.BookTransaction{ID: "late", BankAccountID: "acc-1", Date: dateutils.Date(2024, 4, 2), Amount: decimal.NewFromInt(-777)})
	rec2 := f2.open(t)
	n, err = f2.svc.AutoMatch(ctx, rec2.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManualMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	ev, err := f.svc.ManualMatch(ctx, rec.ID, "i-3", "D", "bob")
	require.NoError(t, err, "amounts may differ")
	assert.Equal(t, models.MatchManual, ev.MatchType)
	assert.Equal(t, "bob", ev.Actor)
	assert.True(t, f.reconciled(t, "D"))

	tests := []struct {
		name   string
		itemID string
		txID   string
		want   error
	}{
		{"item already matched", "i-3", "A", reconerr.ErrInvalidState},
		{"transaction already matched", "i-1", "D", reconerr.ErrInvalidState},
		{"other account", "i-1", "E", reconerr.ErrValidation},
		{"other statement", "other-item", "A", reconerr.ErrValidation},
		{"unknown item", "nope", "A", reconerr.ErrNotFound},
		{"unknown transaction", "i-1", "nope", reconerr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ManualMatch(ctx, rec.ID, tt.itemID, tt.txID, "bob")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "failed attempts leave no trace")
}

func TestNoDoubleMatching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	_, err := f.svc.ManualMatch(ctx, rec.ID, "i-2", "A", "bob")
	require.NoError(t, err)

	n, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, models.MatchedTo("B"), f.item(t, "i-1").Outcome)

	d, err := f.svc.Detail(ctx, rec.ID)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, p := range d.Matched {
		assert.False(t, seen[p.Event.TransactionID], "transaction %s matched twice", p.Event.TransactionID)
		seen[p.Event.TransactionID] = true
	}
}

func TestConcurrentManualMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, item := range []string{"i-1", "i-2", "i-3", "i-4"} {
		wg.Add(1)
		go func(itemID string) {
			defer wg.Done()
			if _, err := f.svc.ManualMatch(ctx, rec.ID, itemID, "A", "bob"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUnmatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	match, err := f.svc.ManualMatch(ctx, rec.ID, "i-1", "A", "bob")
	require.NoError(t, err)

	void, err := f.svc.Unmatch(ctx, rec.ID, match.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, models.EventVoid, void.Kind)
	assert.Equal(t, match.ID, void.VoidsEventID)

	item := f.item(t, "i-1")
	assert.Equal(t, models.Unmatched(), item.Outcome)
	assert.Nil(t, item.MatchedAt)
	assert.False(t, f.reconciled(t, "A"))

	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, events, 2, "the voided entry is retained")
	assert.Equal(t, match.ID, events[0].ID)

	_, err = f.svc.Unmatch(ctx, rec.ID, match.ID, "carol")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)
	_, err = f.svc.Unmatch(ctx, rec.ID, void.ID, "carol")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)
	_, err = f.svc.Unmatch(ctx, rec.ID, "missing", "carol")
	assert.ErrorIs(t, err, reconerr.ErrNotFound)

	_, err = f.svc.ManualMatch(ctx, rec.ID, "i-1", "A", "bob")
	require.NoError(t, err, "both sides are free again")
}

func TestExceptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	bankOnly, err := f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "monthly fee", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.BankOnly("monthly fee"), f.item(t, "i-3").Outcome)
	_, err = f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "again", "bob")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)

	bookOnly, err := f.svc.MarkBookOnly(ctx, rec.ID, "D", "cheque not presented", "bob")
	require.NoError(t, err)
	assert.False(t, f.reconciled(t, "D"))
	_, err = f.svc.MarkBookOnly(ctx, rec.ID, "D", "again", "bob")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)
	_, err = f.svc.ManualMatch(ctx, rec.ID, "i-1", "D", "bob")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)

	n, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	match := f.item(t, "i-1")
	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	var matchEventID string
	for _, ev := range events {
		if ev.StatementItemID == match.ID && ev.Kind == models.EventMatch {
			matchEventID = ev.ID
		}
	}
	_, err = f.svc.ClearException(ctx, rec.ID, matchEventID, "bob")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState, "matches are undone with Unmatch")

	_, err = f.svc.ClearException(ctx, rec.ID, bankOnly.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUnmatched, f.item(t, "i-3").Outcome.Kind)

	_, err = f.svc.ClearException(ctx, rec.ID, bookOnly.ID, "bob")
	require.NoError(t, err)
	d, err := f.svc.Detail(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, d.BookOnly)
	require.Len(t, d.OutstandingBook, 1)
	assert.Equal(t, "D", d.OutstandingBook[0].ID)
}

func TestCreateTransactionFromStatementItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	tx, ev, err := f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-3", "bank-fees", "", "bob")
	require.NoError(t, err)
	assert.Equal(t, "line i-3", tx.Description)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-25)))
	assert.Equal(t, dateutils.Date(2024, 3, 31), tx.Date)
	assert.Equal(t, models.MatchCreated, ev.MatchType)
	assert.Equal(t, tx.ID, ev.TransactionID)
	assert.True(t, f.reconciled(t, tx.ID))
	assert.Equal(t, models.MatchedTo(tx.ID), f.item(t, "i-3").Outcome)

	_, _, err = f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-3", "bank-fees", "", "bob")
	assert.ErrorIs(t, err, reconerr.ErrInvalidState)
	_, _, err = f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-1", "", "", "bob")
	assert.ErrorIs(t, err, reconerr.ErrValidation, "template is required")
}

type refusingLedger struct {
	*ledger.Memory
}

func (refusingLedger) MarkTransactionReconciled(context.Context, string) error {
	return errors.New("ledger unavailable")
}

func TestCreateTransactionFromStatementItem_FailureRemovesTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)
	f.svc.ledger = refusingLedger{f.ledger}
	before := len(f.ledger.Transactions())

	_, _, err := f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-3", "bank-fees", "", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger unavailable")

	assert.Len(t, f.ledger.Transactions(), before)
	assert.Equal(t, models.Unmatched(), f.item(t, "i-3").Outcome)
	events, err := f.svc.Events(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, f.logger.HasEntry("WARN", "Created book transaction could not be matched and was removed"))
}

func TestDetail_BookBalanceFollowsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	_, _, err := f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-3", "bank-fees", "", "bob")
	require.NoError(t, err)

	d, err := f.svc.Detail(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, d.Reconciliation.BookBalance.Equal(rec.BookBalance.Sub(decimal.NewFromInt(25))),
		"book %s", d.Reconciliation.BookBalance)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.BookBalance.Equal(rec.BookBalance), "Detail does not write")
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	_, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, rec.ID, "alice")
	require.ErrorIs(t, err, reconerr.ErrInvalidState)
	assert.Contains(t, err.Error(), "1 statement items are still unmatched")

	_, err = f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "fee", "alice")
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ReconciliationCompleted, done.Status)
	assert.Equal(t, "alice", done.CompletedBy)
	require.NotNil(t, done.CompletedAt)

	mutations := map[string]func() error{
		"automatch": func() error { _, err := f.svc.AutoMatch(ctx, rec.ID, "a"); return err },
		"match":     func() error { _, err := f.svc.ManualMatch(ctx, rec.ID, "i-3", "D", "a"); return err },
		"bank-only": func() error { _, err := f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "", "a"); return err },
		"book-only": func() error { _, err := f.svc.MarkBookOnly(ctx, rec.ID, "D", "", "a"); return err },
		"complete":  func() error { _, err := f.svc.Complete(ctx, rec.ID, "a"); return err },
		"create-tx": func() error {
			_, _, err := f.svc.CreateTransactionFromStatementItem(ctx, rec.ID, "i-3", "t", "", "a")
			return err
		},
	}
	for name, fn := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(), reconerr.ErrInvalidState)
		})
	}

	_, err = f.svc.Create(ctx, CreateRequest{StatementID: "stmt-1", Actor: "alice"})
	require.ErrorIs(t, err, reconerr.ErrInvalidState, "a completed session still owns its statement")
	list, err := f.svc.ListByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()

	complete := func(t *testing.T, f *fixture) *models.BankReconciliation {
		rec := f.open(t)
		_, err := f.svc.AutoMatch(ctx, rec.ID, "alice")
		require.NoError(t, err)
		_, err = f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "fee", "alice")
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, rec.ID, "alice")
		require.NoError(t, err)
		return rec
	}

	t.Run("locked", func(t *testing.T) {
		f := newFixture(t, DefaultOptions())
		rec := complete(t, f)
		_, err := f.svc.Reopen(ctx, rec.ID, "alice")
		assert.ErrorIs(t, err, reconerr.ErrInvalidState)
	})

	t.Run("allow", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ReopenPolicy = ReopenAllow
		f := newFixture(t, opts)
		rec := complete(t, f)

		reopened, err := f.svc.Reopen(ctx, rec.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.ReconciliationOpen, reopened.Status)
		assert.Nil(t, reopened.CompletedAt)
		assert.Contains(t, f.audit.Actions(), audit.ActionReopen)

		_, err = f.svc.Reopen(ctx, rec.ID, "alice")
		assert.ErrorIs(t, err, reconerr.ErrInvalidState, "already open")

		events, err := f.svc.Events(ctx, rec.ID)
		require.NoError(t, err)
		_, err = f.svc.Unmatch(ctx, rec.ID, events[0].ID, "alice")
		require.NoError(t, err)
	})
}

func TestDetailAndPreview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())
	rec := f.open(t)

	_, err := f.svc.ManualMatch(ctx, rec.ID, "i-1", "A", "bob")
	require.NoError(t, err)
	_, err = f.svc.MarkBankOnly(ctx, rec.ID, "i-3", "fee", "bob")
	require.NoError(t, err)
	_, err = f.svc.MarkBookOnly(ctx, rec.ID, "C", "deposit in transit", "bob")
	require.NoError(t, err)

	d, err := f.svc.Detail(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, d.Matched, 1)
	assert.Equal(t, "A", d.Matched[0].Transaction.ID)
	assert.Equal(t, []string{"i-2", "i-4"}, []string{d.Unmatched[0].ID, d.Unmatched[1].ID})
	require.Len(t, d.BankOnly, 1)
	require.Len(t, d.BookOnly, 1)
	assert.Equal(t, "C", d.BookOnly[0].Transaction.ID)
	ids := []string{}
	for _, tx := range d.OutstandingBook {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"B", "D"}, ids)

	ranked, err := f.svc.CandidatePreview(ctx, rec.ID, "i-2")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Transaction.ID)
	assert.True(t, ranked[0].AmountMatch)
	assert.Equal(t, "D", ranked[1].Transaction.ID)
	assert.False(t, ranked[1].AmountMatch)

	_, err = f.svc.CandidatePreview(ctx, rec.ID, "other-item")
	assert.ErrorIs(t, err, reconerr.ErrValidation)
}
