package models

import (
	"sort"
	"time"
)

// EventKind is the kind of a reconciliation log entry.
type EventKind string

const (
	EventMatch    EventKind = "MATCH"
	EventBankOnly EventKind = "BANK_ONLY"
	EventBookOnly EventKind = "BOOK_ONLY"
	EventVoid     EventKind = "VOID"
)

// MatchType records how a MATCH was made.
type MatchType string

const (
	MatchAuto    MatchType = "AUTO"
	MatchManual  MatchType = "MANUAL"
	MatchCreated MatchType = "CREATED"
)

// ReconciliationEvent is one entry of a session's append-only log. Entries
// are never updated or deleted; a VOID entry retracts the entry named by
// VoidsEventID.
type ReconciliationEvent struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	ReconciliationID string    `json:"reconciliation_id" gorm:"uniqueIndex:idx_event_seq;size:36"`
	Seq              int       `json:"seq" gorm:"uniqueIndex:idx_event_seq"`
	Kind             EventKind `json:"kind" gorm:"size:20"`
	StatementItemID  string    `json:"statement_item_id,omitempty" gorm:"index;size:36"`
	TransactionID    string    `json:"transaction_id,omitempty" gorm:"index;size:36"`
	MatchType        MatchType `json:"match_type,omitempty" gorm:"size:20"`
	Notes            string    `json:"notes,omitempty" gorm:"size:500"`
	VoidsEventID     string    `json:"voids_event_id,omitempty" gorm:"size:36"`
	Actor            string    `json:"actor" gorm:"size:100"`
	At               time.Time `json:"at"`
}

// Projection is the live view of an event log.
type Projection struct {
	// Live holds every non-void entry not retracted by a VOID, in Seq order.
	Live []ReconciliationEvent
	// ByItem maps a statement item to its live MATCH or BANK_ONLY entry.
	ByItem map[string]ReconciliationEvent
	// ByTransaction maps a book transaction to its live MATCH or BOOK_ONLY entry.
	ByTransaction map[string]ReconciliationEvent
	// Voided holds the ids of retracted entries.
	Voided map[string]bool
	// NextSeq is the sequence number for the next appended entry.
	NextSeq int
}

// Project folds an event log into its live view.
func Project(events []ReconciliationEvent) Projection {
	ordered := make([]ReconciliationEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	p := Projection{
		ByItem:        make(map[string]ReconciliationEvent),
		ByTransaction: make(map[string]ReconciliationEvent),
		Voided:        make(map[string]bool),
		NextSeq:       1,
	}
	for _, e := range ordered {
		if e.Kind == EventVoid {
			p.Voided[e.VoidsEventID] = true
		}
		if e.Seq >= p.NextSeq {
			p.NextSeq = e.Seq + 1
		}
	}
	for _, e := range ordered {
		if e.Kind == EventVoid || p.Voided[e.ID] {
			continue
		}
		p.Live = append(p.Live, e)
		if e.StatementItemID != "" {
			p.ByItem[e.StatementItemID] = e
		}
		if e.TransactionID != "" {
			p.ByTransaction[e.TransactionID] = e
		}
	}
	return p
}

// LiveOfKind filters Live by kind.
func (p Projection) LiveOfKind(kind EventKind) []ReconciliationEvent {
	var out []ReconciliationEvent
	for _, e := range p.Live {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// IsLive reports whether the entry with id is live.
func (p Projection) IsLive(id string) bool {
	for _, e := range p.Live {
		if e.ID == id {
			return true
		}
	}
	return false
}
