// Package accounts provides the bank account registry consulted before a
// statement is imported or a reconciliation is opened.
package accounts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"gopkg.in/yaml.v3"
)

const entityAccount = "bank account"

// Registry resolves bank accounts.
type Registry interface {
	Get(ctx context.Context, id string) (models.BankAccount, error)
}

// Memory is an in-process Registry.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]models.BankAccount
}

var _ Registry = (*Memory)(nil)

// NewMemory creates a registry holding accounts.
func NewMemory(accounts ...models.BankAccount) *Memory {
	m := &Memory{accounts: make(map[string]models.BankAccount)}
	for _, a := range accounts {
		m.Put(a)
	}
	return m
}

// Put stores or replaces an account.
func (m *Memory) Put(account models.BankAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *Memory) Get(_ context.Context, id string) (models.BankAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.BankAccount{}, reconerr.NotFound(entityAccount, id)
	}
	return a, nil
}

// List returns every account ordered by id.
func (m *Memory) List() []models.BankAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.BankAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// accountsFile is the on-disk layout of an accounts YAML file.
type accountsFile struct {
	Accounts []models.BankAccount `yaml:"accounts"`
}

// ParseYAML decodes an accounts document.
func ParseYAML(data []byte) ([]models.BankAccount, error) {
	var doc accountsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing accounts YAML: %w", err)
	}
	seen := make(map[string]bool, len(doc.Accounts))
	for i, a := range doc.Accounts {
		if a.ID == "" {
			return nil, reconerr.Invalid(fmt.Sprintf("accounts[%d].id", i), "is required")
		}
		if seen[a.ID] {
			return nil, reconerr.Invalid(fmt.Sprintf("accounts[%d].id", i), fmt.Sprintf("duplicate id %q", a.ID))
		}
		seen[a.ID] = true
	}
	return doc.Accounts, nil
}

// LoadYAML builds a Memory registry from a YAML file of the form
//
//	accounts:
//	  - id: bca-main
//	    name: BCA Operating
//	    bank_type: BCA
//	    currency: IDR
//	    active: true
func LoadYAML(filePath string, logger logging.Logger) (*Memory, error) {
	logger = logging.OrDefault(logger)
	data, err := fileutils.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	list, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded bank accounts",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(list)))
	return NewMemory(list...), nil
}
