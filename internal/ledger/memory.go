package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const entityTransaction = "book transaction"

// Memory is an in-process Ledger.
type Memory struct {
	mu           sync.RWMutex
	transactions map[string]models.BookTransaction
	opening      map[string]decimal.Decimal
	templates    map[string]bool
}

var _ Ledger = (*Memory)(nil)

// NewMemory creates a ledger holding txs.
func NewMemory(txs ...models.BookTransaction) *Memory {
	m := &Memory{
		transactions: make(map[string]models.BookTransaction),
		opening:      make(map[string]decimal.Decimal),
		templates:    make(map[string]bool),
	}
	for _, tx := range txs {
		m.Add(tx)
	}
	return m
}

// Add stores or replaces a transaction. Dates are truncated to the day.
func (m *Memory) Add(tx models.BookTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.Date = dateutils.DateOnly(tx.Date)
	m.transactions[tx.ID] = tx
}

// SetOpeningBalance sets the balance an account had before its first
// transaction.
func (m *Memory) SetOpeningBalance(accountID string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opening[accountID] = amount
}

// AddTemplate registers a journal template usable by CreateTransaction. A
// ledger without templates accepts any non-empty template id.
func (m *Memory) AddTemplate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[id] = true
}

// Transactions returns every transaction ordered by date then id.
func (m *Memory) Transactions() []models.BookTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.BookTransaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		out = append(out, tx)
	}
	sortTransactions(out)
	return out
}

func (m *Memory) FindUnmatchedTransactions(_ context.Context, accountID string, window models.DateRange) ([]models.BookTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.BookTransaction
	for _, tx := range m.transactions {
		if tx.BankAccountID == accountID && !tx.Reconciled && window.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (m *Memory) GetTransaction(_ context.Context, id string) (*models.BookTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, reconerr.NotFound(entityTransaction, id)
	}
	return &tx, nil
}

func (m *Memory) CreateTransaction(_ context.Context, req CreateTransactionRequest) (*models.BookTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, reconerr.Invalid("template_id", "is required")
	}
	if len(m.templates) > 0 && !m.templates[req.TemplateID] {
		return nil, reconerr.NotFound("journal template", req.TemplateID)
	}
	if req.AccountID == "" {
		return nil, reconerr.Invalid("account_id", "is required")
	}
	tx := models.BookTransaction{
		ID:            uuid.NewString(),
		BankAccountID: req.AccountID,
		Date:          dateutils.DateOnly(req.Date),
		Amount:        req.Amount,
		Description:   req.Description,
		Reference:     req.Reference,
	}
	m.transactions[tx.ID] = tx
	return &tx, nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return reconerr.NotFound(entityTransaction, id)
	}
	if tx.Reconciled {
		return reconerr.InvalidState(entityTransaction, id, "delete", "reconciled")
	}
	delete(m.transactions, id)
	return nil
}

func (m *Memory) MarkTransactionReconciled(_ context.Context, id string) error {
	return m.setReconciled(id, true)
}

func (m *Memory) MarkTransactionUnreconciled(_ context.Context, id string) error {
	return m.setReconciled(id, false)
}

func (m *Memory) setReconciled(id string, reconciled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return reconerr.NotFound(entityTransaction, id)
	}
	tx.Reconciled = reconciled
	m.transactions[id] = tx
	return nil
}

func (m *Memory) BookBalance(_ context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := dateutils.DateOnly(asOf)
	balance := m.opening[accountID]
	for _, tx := range m.transactions {
		if tx.BankAccountID == accountID && !tx.Date.After(day) {
			balance = balance.Add(tx.Amount)
		}
	}
	return balance, nil
}

func sortTransactions(txs []models.BookTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
