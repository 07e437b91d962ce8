// Package audit records who did what to statements and reconciliations.
package audit

import (
	"context"
	"sync"
	"time"

	"fjacquet/bank-recon/internal/logging"
)

// Actions recorded by the services.
const (
	ActionImport         = "statement.import"
	ActionDeleteStmt     = "statement.delete"
	ActionCreate         = "reconciliation.create"
	ActionAutoMatch      = "reconciliation.automatch"
	ActionMatch          = "reconciliation.match"
	ActionUnmatch        = "reconciliation.unmatch"
	ActionBankOnly       = "reconciliation.bank_only"
	ActionBookOnly       = "reconciliation.book_only"
	ActionClearException = "reconciliation.clear_exception"
	ActionCreateTx       = "reconciliation.create_transaction"
	ActionComplete       = "reconciliation.complete"
	ActionReopen         = "reconciliation.reopen"
	ActionConfigChange   = "parser_config.change"
)

// Entry is one audit record.
type Entry struct {
	Action   string
	Actor    string
	Entity   string
	EntityID string
	Details  map[string]interface{}
	At       time.Time
}

// Sink receives audit entries. Record must not fail the calling operation,
// so it has no error result.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// LogSink writes entries to a logger.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logging.OrDefault(logger)}
}

func (s *LogSink) Record(_ context.Context, entry Entry) {
	fields := []logging.Field{
		logging.F(logging.FieldOperation, entry.Action),
		logging.F(logging.FieldActor, entry.Actor),
		logging.F("entity", entry.Entity),
		logging.F("entity_id", entry.EntityID),
	}
	for k, v := range entry.Details {
		fields = append(fields, logging.F(k, v))
	}
	s.logger.WithField(logging.FieldComponent, "audit").Info("Audit", fields...)
}

// Recorder keeps entries in memory, optionally forwarding them.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	next    Sink
}

// NewRecorder creates a Recorder that forwards to next when non-nil.
func NewRecorder(next Sink) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Record(ctx, entry)
	}
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Entry) {}

// OrDiscard returns sink, or Discard when sink is nil.
func OrDiscard(sink Sink) Sink {
	if sink == nil {
		return Discard
	}
	return sink
}
