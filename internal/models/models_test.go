package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestItemOutcome_Status(t *testing.T) {
	tests := []struct {
		name      string
		outcome   ItemOutcome
		status    MatchStatus
		attention bool
	}{
		{name: "unmatched", outcome: Unmatched(), status: StatusUnmatched, attention: true},
		{name: "matched", outcome: MatchedTo("tx-1"), status: StatusMatched, attention: false},
		{name: "bank only", outcome: BankOnly("bank fee"), status: StatusUnmatched, attention: false},
		{name: "zero value", outcome: ItemOutcome{}, status: StatusUnmatched, attention: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := BankStatementItem{Outcome: tt.outcome}
			assert.Equal(t, tt.status, item.Status())
			assert.Equal(t, tt.attention, item.NeedsAttention())
		})
	}

	assert.Equal(t, "tx-1", MatchedTo("tx-1").TransactionID)
	assert.Empty(t, BankOnly("fee").TransactionID)
}

func TestItemFilter(t *testing.T) {
	matched := BankStatementItem{Outcome: MatchedTo("tx")}
	open := BankStatementItem{Outcome: Unmatched()}

	assert.True(t, ItemFilter{}.Accepts(matched))
	f := ItemFilter{Kinds: []OutcomeKind{OutcomeUnmatched}}
	assert.False(t, f.Accepts(matched))
	assert.True(t, f.Accepts(open))
}

func TestDateRange(t *testing.T) {
	dr := NewDateRange(day(5), day(10))
	require.True(t, dr.Valid())
	assert.True(t, dr.Contains(day(5)))
	assert.True(t, dr.Contains(day(10).Add(23*time.Hour)))
	assert.False(t, dr.Contains(day(11)))

	wide := dr.Extend(3)
	assert.Equal(t, day(2), wide.Start)
	assert.Equal(t, day(13), wide.End)

	assert.False(t, NewDateRange(day(10), day(5)).Valid())
	assert.False(t, DateRange{}.Valid())

	merged := DateRange{}.Merge(dr).Merge(NewDateRange(day(1), day(6)))
	assert.Equal(t, day(1), merged.Start)
	assert.Equal(t, day(10), merged.End)
	assert.Equal(t, "2024-01-01..2024-01-10", merged.String())
}

func TestParserConfig_WithDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ParserConfig
		sign     SignConvention
		required []string
	}{
		{
			name:     "single amount column",
			cfg:      ParserConfig{Format: FormatDelimited, Columns: ColumnMap{Date: Col(0), Amount: Col(2)}},
			sign:     SignSigned,
			required: []string{"date", "amount"},
		},
		{
			name:     "debit and credit columns",
			cfg:      ParserConfig{Format: FormatDelimited, Columns: ColumnMap{Date: Col(0), Debit: Col(2), Credit: Col(3)}},
			sign:     SignDebitCredit,
			required: []string{"date", "debit", "credit"},
		},
		{
			name:     "indicator column",
			cfg:      ParserConfig{Format: FormatFixedWidth, Columns: ColumnMap{Date: Span(0, 10), Amount: Span(10, 12), Indicator: Span(22, 2)}},
			sign:     SignIndicator,
			required: []string{"date", "amount", "indicator"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.WithDefaults()
			assert.Equal(t, tt.sign, got.SignConvention)
			assert.Equal(t, tt.required, got.RequiredColumnNames())
			assert.Equal(t, "UTF-8", got.Encoding)
			assert.Equal(t, ".", got.DecimalSeparator)
			assert.Equal(t, "CR", got.CreditIndicator)
		})
	}

	delimited := ParserConfig{Format: FormatDelimited}.WithDefaults()
	assert.Equal(t, ",", delimited.Delimiter)
	assert.Equal(t, ",", delimited.ThousandSeparator)

	european := ParserConfig{Format: FormatDelimited, DecimalSeparator: ","}.WithDefaults()
	assert.Equal(t, "", european.ThousandSeparator, "explicit decimal separator keeps thousand separator unset")

	cfg := ParserConfig{Columns: ColumnMap{Reference: NamedCol("Ref")}}
	assert.Equal(t, "Ref", cfg.ColumnFor("reference").Name)
	assert.Nil(t, cfg.ColumnFor("balance"))
	assert.Nil(t, cfg.ColumnFor("unknown"))
}

func TestParseResult(t *testing.T) {
	r := &ParseResult{
		Lines: []NormalizedLine{
			{LineNumber: 2, Date: day(3), Amount: decimal.NewFromInt(100)},
			{LineNumber: 4, Date: day(1), Amount: decimal.NewFromInt(-40)},
		},
		Skipped: []SkippedRow{{Line: 3, Reason: "bad date"}},
	}

	assert.Equal(t, 3, r.DataRows())
	assert.InDelta(t, 1.0/3.0, r.SkipRatio(), 1e-9)
	assert.True(t, decimal.NewFromInt(60).Equal(r.Net()))
	assert.Equal(t, NewDateRange(day(1), day(3)), r.Period())
	assert.Equal(t, 0.0, (&ParseResult{}).SkipRatio())
}

func TestProject(t *testing.T) {
	events := []ReconciliationEvent{
		{ID: "e3", Seq: 3, Kind: EventVoid, VoidsEventID: "e1"},
		{ID: "e1", Seq: 1, Kind: EventMatch, StatementItemID: "i1", TransactionID: "t1", MatchType: MatchAuto},
		{ID: "e2", Seq: 2, Kind: EventBankOnly, StatementItemID: "i2", Notes: "fee"},
		{ID: "e4", Seq: 4, Kind: EventMatch, StatementItemID: "i1", TransactionID: "t2", MatchType: MatchManual},
		{ID: "e5", Seq: 5, Kind: EventBookOnly, TransactionID: "t3"},
	}

	p := Project(events)

	require.Len(t, p.Live, 3)
	assert.Equal(t, []string{"e2", "e4", "e5"}, []string{p.Live[0].ID, p.Live[1].ID, p.Live[2].ID})
	assert.True(t, p.Voided["e1"])
	assert.False(t, p.IsLive("e1"))
	assert.True(t, p.IsLive("e4"))
	assert.Equal(t, "t2", p.ByItem["i1"].TransactionID)
	_, t1Live := p.ByTransaction["t1"]
	assert.False(t, t1Live)
	assert.Equal(t, EventBookOnly, p.ByTransaction["t3"].Kind)
	assert.Len(t, p.LiveOfKind(EventMatch), 1)
	assert.Equal(t, 6, p.NextSeq)

	empty := Project(nil)
	assert.Equal(t, 1, empty.NextSeq)
	assert.Empty(t, empty.Live)
}
