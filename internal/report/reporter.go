// Package report computes reconciliation summaries and renders them.
package report

import (
	"context"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconciliation"

	"github.com/shopspring/decimal"
)

// DetailSource provides the bucketed view of a session.
type DetailSource interface {
	Detail(ctx context.Context, id string) (*reconciliation.Detail, error)
}

// Bucket is a count and a signed total.
type Bucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (b *Bucket) add(amount decimal.Decimal) {
	b.Count++
	b.Total = b.Total.Add(amount)
}

// Side of an outstanding line.
const (
	SideBank = "bank"
	SideBook = "book"
)

// Outstanding line categories.
const (
	CategoryUnmatched   = "unmatched"
	CategoryBankOnly    = "bank_only"
	CategoryOutstanding = "outstanding"
	CategoryBookOnly    = "book_only"
)

// OutstandingLine is one item or transaction that is not matched.
type OutstandingLine struct {
	Side        string          `json:"side"`
	Category    string          `json:"category"`
	ID          string          `json:"id"`
	LineNumber  int             `json:"line_number,omitempty"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// Summary is the reconciliation statement of one session.
//
// AdjustedBookBalance adds the bank-side items the books do not have yet
// (unmatched and bank-only) to the book balance. AdjustedBankBalance adds
// the book-side transactions the bank has not shown (outstanding and
// book-only) to the bank balance. The session balances when the two agree.
type Summary struct {
	ReconciliationID    string                      `json:"reconciliation_id"`
	StatementID         string                      `json:"statement_id"`
	BankAccountID       string                      `json:"bank_account_id"`
	PeriodStart         time.Time                   `json:"period_start"`
	PeriodEnd           time.Time                   `json:"period_end"`
	Status              models.ReconciliationStatus `json:"status"`
	Matched             Bucket                      `json:"matched"`
	BankOnly            Bucket                      `json:"bank_only"`
	UnmatchedBank       Bucket                      `json:"unmatched_bank"`
	BookOnly            Bucket                      `json:"book_only"`
	OutstandingBook     Bucket                      `json:"outstanding_book"`
	BookBalance         decimal.Decimal             `json:"book_balance"`
	BankBalance         decimal.Decimal             `json:"bank_balance"`
	AdjustedBookBalance decimal.Decimal             `json:"adjusted_book_balance"`
	AdjustedBankBalance decimal.Decimal             `json:"adjusted_bank_balance"`
	Difference          decimal.Decimal             `json:"difference"`
	Balanced            bool                        `json:"balanced"`
	// Completable is true when no statement item is UNMATCHED.
	Completable bool              `json:"completable"`
	Outstanding []OutstandingLine `json:"outstanding"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Reporter computes summaries. It never changes session state.
type Reporter struct {
	source DetailSource
	logger logging.Logger
	now    func() time.Time
}

// NewReporter creates a Reporter.
func NewReporter(source DetailSource, logger logging.Logger) *Reporter {
	return &Reporter{
		source: source,
		logger: logging.OrDefault(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Summary recomputes the reconciliation statement.
func (r *Reporter) Summary(ctx context.Context, id string) (*Summary, error) {
	d, err := r.source.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := d.Reconciliation
	s := &Summary{
		ReconciliationID: rec.ID,
		StatementID:      rec.StatementID,
		BankAccountID:    rec.BankAccountID,
		PeriodStart:      rec.PeriodStart,
		PeriodEnd:        rec.PeriodEnd,
		Status:           rec.Status,
		BookBalance:      rec.BookBalance,
		BankBalance:      rec.BankBalance,
		Outstanding:      outstanding(d),
		GeneratedAt:      r.now(),
	}
	for _, p := range d.Matched {
		s.Matched.add(p.Item.Amount)
	}
	for _, line := range s.Outstanding {
		switch line.Category {
		case CategoryUnmatched:
			s.UnmatchedBank.add(line.Amount)
		case CategoryBankOnly:
			s.BankOnly.add(line.Amount)
		case CategoryOutstanding:
			s.OutstandingBook.add(line.Amount)
		case CategoryBookOnly:
			s.BookOnly.add(line.Amount)
		}
	}

	s.AdjustedBookBalance = s.BookBalance.Add(s.UnmatchedBank.Total).Add(s.BankOnly.Total)
	s.AdjustedBankBalance = s.BankBalance.Add(s.OutstandingBook.Total).Add(s.BookOnly.Total)
	s.Difference = s.AdjustedBookBalance.Sub(s.AdjustedBankBalance)
	s.Balanced = s.Difference.IsZero()
	s.Completable = s.UnmatchedBank.Count == 0

	r.logger.Debug("Reconciliation summary computed",
		logging.F(logging.FieldReconciliationID, id),
		logging.F("difference", s.Difference.String()),
		logging.F("balanced", s.Balanced))
	return s, nil
}

// Outstanding lists the unmatched and exception lines of both sides.
func (r *Reporter) Outstanding(ctx context.Context, id string) ([]OutstandingLine, error) {
	d, err := r.source.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	return outstanding(d), nil
}

func outstanding(d *reconciliation.Detail) []OutstandingLine {
	var out []OutstandingLine
	for _, item := range d.Unmatched {
		out = append(out, itemLine(item, CategoryUnmatched))
	}
	for _, item := range d.BankOnly {
		out = append(out, itemLine(item, CategoryBankOnly))
	}
	for _, tx := range d.OutstandingBook {
		out = append(out, txLine(tx, CategoryOutstanding, ""))
	}
	for _, e := range d.BookOnly {
		if e.Transaction == nil {
			continue
		}
		out = append(out, txLine(*e.Transaction, CategoryBookOnly, e.Event.Notes))
	}
	return out
}

func itemLine(item models.BankStatementItem, category string) OutstandingLine {
	return OutstandingLine{
		Side:        SideBank,
		Category:    category,
		ID:          item.ID,
		LineNumber:  item.LineNumber,
		Date:        dateutils.DateOnly(item.TransactionDate),
		Amount:      item.Amount,
		Description: item.Description,
		Reference:   item.Reference,
		Notes:       item.Outcome.Notes,
	}
}

func txLine(tx models.BookTransaction, category, notes string) OutstandingLine {
	return OutstandingLine{
		Side:        SideBook,
		Category:    category,
		ID:          tx.ID,
		Date:        dateutils.DateOnly(tx.Date),
		Amount:      tx.Amount,
		Description: tx.Description,
		Reference:   tx.Reference,
		Notes:       notes,
	}
}
