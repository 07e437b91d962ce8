package store

import (
	"context"
	"sort"
	"sync"

	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
)

// Memory is an in-process Store. Transactions take an exclusive lock and
// work on a copy of the data that replaces the original on commit.
type Memory struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

var _ Store = (*Memory)(nil)

// WithTx implements Store.
func (m *Memory) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(working); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = working
	return nil
}

func (m *Memory) read(fn func(s *memState) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.state)
}

func (m *Memory) write(fn func(s *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *Memory) CreateParserConfig(ctx context.Context, cfg *models.ParserConfig) error {
	return m.write(func(s *memState) error { return s.CreateParserConfig(ctx, cfg) })
}

func (m *Memory) UpdateParserConfig(ctx context.Context, cfg *models.ParserConfig) error {
	return m.write(func(s *memState) error { return s.UpdateParserConfig(ctx, cfg) })
}

func (m *Memory) GetParserConfig(ctx context.Context, id string) (cfg *models.ParserConfig, err error) {
	err = m.read(func(s *memState) error { cfg, err = s.GetParserConfig(ctx, id); return err })
	return cfg, err
}

func (m *Memory) GetParserConfigByName(ctx context.Context, name string) (cfg *models.ParserConfig, err error) {
	err = m.read(func(s *memState) error { cfg, err = s.GetParserConfigByName(ctx, name); return err })
	return cfg, err
}

func (m *Memory) ListParserConfigs(ctx context.Context) (out []models.ParserConfig, err error) {
	err = m.read(func(s *memState) error { out, err = s.ListParserConfigs(ctx); return err })
	return out, err
}

func (m *Memory) DeleteParserConfig(ctx context.Context, id string) error {
	return m.write(func(s *memState) error { return s.DeleteParserConfig(ctx, id) })
}

func (m *Memory) CreateStatement(ctx context.Context, stmt *models.BankStatement, items []models.BankStatementItem) error {
	return m.write(func(s *memState) error { return s.CreateStatement(ctx, stmt, items) })
}

func (m *Memory) GetStatement(ctx context.Context, id string) (stmt *models.BankStatement, err error) {
	err = m.read(func(s *memState) error { stmt, err = s.GetStatement(ctx, id); return err })
	return stmt, err
}

func (m *Memory) ListStatements(ctx context.Context, accountID string) (out []models.BankStatement, err error) {
	err = m.read(func(s *memState) error { out, err = s.ListStatements(ctx, accountID); return err })
	return out, err
}

func (m *Memory) DeleteStatement(ctx context.Context, id string) error {
	return m.write(func(s *memState) error { return s.DeleteStatement(ctx, id) })
}

func (m *Memory) ListItems(ctx context.Context, statementID string) (out []models.BankStatementItem, err error) {
	err = m.read(func(s *memState) error { out, err = s.ListItems(ctx, statementID); return err })
	return out, err
}

func (m *Memory) GetItem(ctx context.Context, id string) (item *models.BankStatementItem, err error) {
	err = m.read(func(s *memState) error { item, err = s.GetItem(ctx, id); return err })
	return item, err
}

func (m *Memory) UpdateItem(ctx context.Context, item *models.BankStatementItem) error {
	return m.write(func(s *memState) error { return s.UpdateItem(ctx, item) })
}

func (m *Memory) CreateReconciliation(ctx context.Context, rec *models.BankReconciliation) error {
	return m.write(func(s *memState) error { return s.CreateReconciliation(ctx, rec) })
}

func (m *Memory) GetReconciliation(ctx context.Context, id string) (rec *models.BankReconciliation, err error) {
	err = m.read(func(s *memState) error { rec, err = s.GetReconciliation(ctx, id); return err })
	return rec, err
}

func (m *Memory) ListReconciliations(ctx context.Context, statementID string) (out []models.BankReconciliation, err error) {
	err = m.read(func(s *memState) error { out, err = s.ListReconciliations(ctx, statementID); return err })
	return out, err
}

func (m *Memory) UpdateReconciliation(ctx context.Context, rec *models.BankReconciliation) error {
	return m.write(func(s *memState) error { return s.UpdateReconciliation(ctx, rec) })
}

func (m *Memory) AppendEvent(ctx context.Context, event *models.ReconciliationEvent) error {
	return m.write(func(s *memState) error { return s.AppendEvent(ctx, event) })
}

func (m *Memory) ListEvents(ctx context.Context, reconciliationID string) (out []models.ReconciliationEvent, err error) {
	err = m.read(func(s *memState) error { out, err = s.ListEvents(ctx, reconciliationID); return err })
	return out, err
}

// memState holds the data. It does no locking; Memory does.
type memState struct {
	configs         map[string]models.ParserConfig
	statements      map[string]models.BankStatement
	items           map[string]models.BankStatementItem
	reconciliations map[string]models.BankReconciliation
	events          map[string][]models.ReconciliationEvent
	// seq orders entities by creation so listings are stable.
	seq     int
	created map[string]int
}

func newMemState() *memState {
	return &memState{
		configs:         make(map[string]models.ParserConfig),
		statements:      make(map[string]models.BankStatement),
		items:           make(map[string]models.BankStatementItem),
		reconciliations: make(map[string]models.BankReconciliation),
		events:          make(map[string][]models.ReconciliationEvent),
		created:         make(map[string]int),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.statements {
		v.Warnings = append([]models.Warning(nil), v.Warnings...)
		c.statements[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.reconciliations {
		c.reconciliations[k] = v
	}
	for k, v := range s.events {
		c.events[k] = append([]models.ReconciliationEvent(nil), v...)
	}
	for k, v := range s.created {
		c.created[k] = v
	}
	c.seq = s.seq
	return c
}

func (s *memState) stamp(id string) {
	s.seq++
	s.created[id] = s.seq
}

func (s *memState) CreateParserConfig(_ context.Context, cfg *models.ParserConfig) error {
	if _, ok := s.configs[cfg.ID]; ok {
		return &reconerr.ConflictError{Entity: EntityParserConfig, ID: cfg.ID, Reason: "already exists"}
	}
	for _, existing := range s.configs {
		if existing.Name == cfg.Name {
			return &reconerr.ConflictError{Entity: EntityParserConfig, ID: cfg.Name, Reason: "name already in use"}
		}
	}
	s.configs[cfg.ID] = *cfg
	s.stamp(cfg.ID)
	return nil
}

func (s *memState) UpdateParserConfig(_ context.Context, cfg *models.ParserConfig) error {
	stored, ok := s.configs[cfg.ID]
	if !ok {
		return reconerr.NotFound(EntityParserConfig, cfg.ID)
	}
	if stored.Version != cfg.Version {
		return &reconerr.ConflictError{Entity: EntityParserConfig, ID: cfg.ID}
	}
	for _, existing := range s.configs {
		if existing.ID != cfg.ID && existing.Name == cfg.Name {
			return &reconerr.ConflictError{Entity: EntityParserConfig, ID: cfg.Name, Reason: "name already in use"}
		}
	}
	cfg.Version++
	s.configs[cfg.ID] = *cfg
	return nil
}

func (s *memState) GetParserConfig(_ context.Context, id string) (*models.ParserConfig, error) {
	cfg, ok := s.configs[id]
	if !ok {
		return nil, reconerr.NotFound(EntityParserConfig, id)
	}
	return &cfg, nil
}

func (s *memState) GetParserConfigByName(_ context.Context, name string) (*models.ParserConfig, error) {
	for _, cfg := range s.configs {
		if cfg.Name == name {
			c := cfg
			return &c, nil
		}
	}
	return nil, reconerr.NotFound(EntityParserConfig, name)
}

func (s *memState) ListParserConfigs(_ context.Context) ([]models.ParserConfig, error) {
	out := make([]models.ParserConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memState) DeleteParserConfig(_ context.Context, id string) error {
	if _, ok := s.configs[id]; !ok {
		return reconerr.NotFound(EntityParserConfig, id)
	}
	delete(s.configs, id)
	return nil
}

func (s *memState) CreateStatement(_ context.Context, stmt *models.BankStatement, items []models.BankStatementItem) error {
	if _, ok := s.statements[stmt.ID]; ok {
		return &reconerr.ConflictError{Entity: EntityStatement, ID: stmt.ID, Reason: "already exists"}
	}
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			return &reconerr.ConflictError{Entity: EntityStatementItem, ID: item.ID, Reason: "already exists"}
		}
	}
	s.statements[stmt.ID] = *stmt
	s.stamp(stmt.ID)
	for _, item := range items {
		s.items[item.ID] = item
	}
	return nil
}

func (s *memState) GetStatement(_ context.Context, id string) (*models.BankStatement, error) {
	stmt, ok := s.statements[id]
	if !ok {
		return nil, reconerr.NotFound(EntityStatement, id)
	}
	return &stmt, nil
}

func (s *memState) ListStatements(_ context.Context, accountID string) ([]models.BankStatement, error) {
	var out []models.BankStatement
	for _, stmt := range s.statements {
		if accountID == "" || stmt.BankAccountID == accountID {
			out = append(out, stmt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.created[out[i].ID] < s.created[out[j].ID] })
	return out, nil
}

func (s *memState) DeleteStatement(_ context.Context, id string) error {
	if _, ok := s.statements[id]; !ok {
		return reconerr.NotFound(EntityStatement, id)
	}
	for itemID, item := range s.items {
		if item.StatementID == id {
			delete(s.items, itemID)
		}
	}
	delete(s.statements, id)
	delete(s.created, id)
	return nil
}

func (s *memState) ListItems(_ context.Context, statementID string) ([]models.BankStatementItem, error) {
	var out []models.BankStatementItem
	for _, item := range s.items {
		if item.StatementID == statementID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LineNumber != out[j].LineNumber {
			return out[i].LineNumber < out[j].LineNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memState) GetItem(_ context.Context, id string) (*models.BankStatementItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, reconerr.NotFound(EntityStatementItem, id)
	}
	return &item, nil
}

func (s *memState) UpdateItem(_ context.Context, item *models.BankStatementItem) error {
	stored, ok := s.items[item.ID]
	if !ok {
		return reconerr.NotFound(EntityStatementItem, item.ID)
	}
	if stored.Version != item.Version {
		return &reconerr.ConflictError{Entity: EntityStatementItem, ID: item.ID}
	}
	item.Version++
	s.items[item.ID] = *item
	return nil
}

func (s *memState) CreateReconciliation(_ context.Context, rec *models.BankReconciliation) error {
	if _, ok := s.reconciliations[rec.ID]; ok {
		return &reconerr.ConflictError{Entity: EntityReconciliation, ID: rec.ID, Reason: "already exists"}
	}
	s.reconciliations[rec.ID] = *rec
	s.stamp(rec.ID)
	return nil
}

func (s *memState) GetReconciliation(_ context.Context, id string) (*models.BankReconciliation, error) {
	rec, ok := s.reconciliations[id]
	if !ok {
		return nil, reconerr.NotFound(EntityReconciliation, id)
	}
	return &rec, nil
}

func (s *memState) ListReconciliations(_ context.Context, statementID string) ([]models.BankReconciliation, error) {
	var out []models.BankReconciliation
	for _, rec := range s.reconciliations {
		if rec.StatementID == statementID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.created[out[i].ID] < s.created[out[j].ID] })
	return out, nil
}

func (s *memState) UpdateReconciliation(_ context.Context, rec *models.BankReconciliation) error {
	stored, ok := s.reconciliations[rec.ID]
	if !ok {
		return reconerr.NotFound(EntityReconciliation, rec.ID)
	}
	if stored.Version != rec.Version {
		return &reconerr.ConflictError{Entity: EntityReconciliation, ID: rec.ID}
	}
	rec.Version++
	s.reconciliations[rec.ID] = *rec
	return nil
}

func (s *memState) AppendEvent(_ context.Context, event *models.ReconciliationEvent) error {
	if _, ok := s.reconciliations[event.ReconciliationID]; !ok {
		return reconerr.NotFound(EntityReconciliation, event.ReconciliationID)
	}
	for _, e := range s.events[event.ReconciliationID] {
		if e.Seq == event.Seq || e.ID == event.ID {
			return &reconerr.ConflictError{Entity: EntityEvent, ID: event.ID, Reason: "sequence already used"}
		}
	}
	s.events[event.ReconciliationID] = append(s.events[event.ReconciliationID], *event)
	return nil
}

func (s *memState) ListEvents(_ context.Context, reconciliationID string) ([]models.ReconciliationEvent, error) {
	out := append([]models.ReconciliationEvent(nil), s.events[reconciliationID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
