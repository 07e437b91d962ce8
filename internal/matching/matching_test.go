package matching

import (
	"fmt"
	"testing"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = dateutils.Date(2024, 3, 10)

func item(id string, line int, amount string, offset int, ref string) models.BankStatementItem {
	return models.BankStatementItem{
		ID:              id,
		LineNumber:      line,
		TransactionDate: day0.AddDate(0, 0, offset),
		Amount:          decimal.RequireFromString(amount),
		Reference:       ref,
		Outcome:         models.Unmatched(),
	}
}

func book(id, amount string, offset int, ref string) models.BookTransaction {
	return models.BookTransaction{
		ID:            id,
		BankAccountID: "acc-1",
		Date:          day0.AddDate(0, 0, offset),
		Amount:        decimal.RequireFromString(amount),
		Reference:     ref,
	}
}

func pairs(res Result) map[string]string {
	out := make(map[string]string, len(res.Assignments))
	for _, a := range res.Assignments {
		out[a.ItemID] = a.TransactionID
	}
	return out
}

func TestMatch_DateProximityWhenReferenceMissesBookSide(t *testing.T) {
	items := []models.BankStatementItem{
		item("i-2", 2, "-500000", 1, ""),
		item("i-1", 1, "-500000", 0, "INV-1"),
	}
	candidates := []models.BookTransaction{
		book("B", "-500000", 1, ""),
		book("A", "-500000", 0, ""),
	}

	res := Match(items, candidates, DefaultOptions())

	require.Len(t, res.Assignments, 2)
	assert.Equal(t, "i-1", res.Assignments[0].ItemID)
	assert.Equal(t, "A", res.Assignments[0].TransactionID)
	assert.Equal(t, "i-2", res.Assignments[1].ItemID)
	assert.Equal(t, "B", res.Assignments[1].TransactionID)
	assert.Empty(t, res.Ambiguous)
}

func TestMatch_LowestLineWinsSingleCandidate(t *testing.T) {
	items := []models.BankStatementItem{
		item("i-7", 7, "-42.10", 0, ""),
		item("i-3", 3, "-42.10", 0, ""),
	}
	res := Match(items, []models.BookTransaction{book("T1", "-42.10", 0, "")}, DefaultOptions())

	assert.Equal(t, map[string]string{"i-3": "T1"}, pairs(res))
}

func TestMatch_Ranking(t *testing.T) {
	tests := []struct {
		name       string
		item       models.BankStatementItem
		candidates []models.BookTransaction
		want       string
	}{
		{
			name: "reference beats date",
			item: item("i", 1, "10", 0, "REF-9"),
			candidates: []models.BookTransaction{
				book("1", "10", 0, ""),
				book("2", "10", 5, "REF-9"),
			},
			want: "2",
		},
		{
			name: "closest date",
			item: item("i", 1, "10", 0, ""),
			candidates: []models.BookTransaction{
				book("1", "10", -3, ""),
				book("2", "10", 2, ""),
			},
			want: "2",
		},
		{
			name: "numeric id order",
			item: item("i", 1, "10", 0, ""),
			candidates: []models.BookTransaction{
				book("10", "10", 1, ""),
				book("9", "10", -1, ""),
			},
			want: "9",
		},
		{
			name: "sign must agree",
			item: item("i", 1, "10", 0, ""),
			candidates: []models.BookTransaction{
				book("1", "-10", 0, ""),
				book("2", "10.00", 4, ""),
			},
			want: "2",
		},
		{
			name: "empty references never match each other",
			item: item("i", 1, "10", 0, ""),
			candidates: []models.BookTransaction{
				book("2", "10", 0, ""),
				book("1", "10", 1, ""),
			},
			want: "2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Match([]models.BankStatementItem{tt.item}, tt.candidates, DefaultOptions())
			require.Len(t, res.Assignments, 1)
			assert.Equal(t, tt.want, res.Assignments[0].TransactionID)
		})
	}
}

func TestMatch_NoCandidate(t *testing.T) {
	res := Match(
		[]models.BankStatementItem{item("i", 1, "10", 0, "")},
		[]models.BookTransaction{book("1", "10.01", 0, "")},
		DefaultOptions(),
	)
	assert.Empty(t, res.Assignments)
	assert.Empty(t, res.Ambiguous)
}

func TestMatch_Ambiguity(t *testing.T) {
	items := []models.BankStatementItem{item("i", 1, "10", 0, "")}

	t.Run("ids equal numerically", func(t *testing.T) {
		res := Match(items, []models.BookTransaction{book("7", "10", 1, ""), book("007", "10", -1, "")}, DefaultOptions())
		assert.Empty(t, res.Assignments)
		require.Len(t, res.Ambiguous, 1)
		assert.ElementsMatch(t, []string{"7", "007"}, res.Ambiguous[0].TransactionIDs)
	})

	t.Run("id tie-break disabled", func(t *testing.T) {
		candidates := []models.BookTransaction{book("1", "10", 1, ""), book("2", "10", -1, "")}
		res := Match(items, candidates, Options{TieBreakByID: false})
		assert.Empty(t, res.Assignments)
		require.Len(t, res.Ambiguous, 1)

		res = Match(items, candidates, DefaultOptions())
		assert.Equal(t, map[string]string{"i": "1"}, pairs(res))
	})
}

func TestMatch_SkipsResolvedItemsAndDuplicateCandidates(t *testing.T) {
	matched := item("i-1", 1, "10", 0, "")
	matched.Outcome = models.MatchedTo("X")
	bankOnly := item("i-2", 2, "10", 0, "")
	bankOnly.Outcome = models.BankOnly("fee")
	open := item("i-3", 3, "10", 0, "")
	again := item("i-4", 4, "10", 0, "")

	t1 := book("1", "10", 0, "")
	res := Match([]models.BankStatementItem{matched, bankOnly, open, again}, []models.BookTransaction{t1, t1}, DefaultOptions())

	assert.Equal(t, map[string]string{"i-3": "1"}, pairs(res))
}

func TestMatch_NoDoubleMatchingAndDeterminism(t *testing.T) {
	var items []models.BankStatementItem
	var candidates []models.BookTransaction
	for i := 0; i < 30; i++ {
		amount := decimal.NewFromInt(int64(i%4) * 100).String()
		items = append(items, item(fmt.Sprintf("i-%02d", i), i+1, amount, i%5, ""))
		candidates = append(candidates, book(fmt.Sprint(i), amount, i%3, ""))
	}

	first := Match(items, candidates, DefaultOptions())
	second := Match(items, candidates, DefaultOptions())
	assert.Equal(t, first, second)

	usedTx := make(map[string]bool)
	usedItem := make(map[string]bool)
	for _, a := range first.Assignments {
		assert.False(t, usedTx[a.TransactionID], "transaction %s matched twice", a.TransactionID)
		assert.False(t, usedItem[a.ItemID], "item %s matched twice", a.ItemID)
		usedTx[a.TransactionID] = true
		usedItem[a.ItemID] = true
	}
	assert.Len(t, first.Assignments, 30)
}

func TestMatch_DoesNotMutateInputs(t *testing.T) {
	items := []models.BankStatementItem{item("b", 2, "1", 0, ""), item("a", 1, "1", 0, "")}
	candidates := []models.BookTransaction{book("1", "1", 0, "")}
	Match(items, candidates, DefaultOptions())
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, models.OutcomeUnmatched, items[0].Outcome.Kind)
}

func TestRank(t *testing.T) {
	it := item("i", 1, "-100", 0, "INV-2")
	ranked := Rank(it, []models.BookTransaction{
		book("1", "-99", 0, ""),
		book("2", "-100", 3, ""),
		book("3", "-100", 9, "INV-2"),
		book("4", "-150", 0, ""),
	})

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.Transaction.ID
	}
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids)
	assert.True(t, ranked[0].ReferenceMatch)
	assert.Equal(t, 9, ranked[0].DayDiff)
	assert.False(t, ranked[2].AmountMatch)
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"07", "7", 0},
		{"a", "b", -1},
		{"10", "a", -1},
		{"b", "b", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareIDs(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestMatch_ReferenceFromDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		bookRef     string
		want        string
	}{
		{name: "extracted invoice number", description: "Pelunasan inv-77 PT Maju", bookRef: "INV-77", want: "far"},
		{name: "reference token", description: "Transfer PAY/2024/9 customer", bookRef: "PAY/2024/9", want: "far"},
		{name: "no reference", description: "Transfer from customer", bookRef: "INV-77", want: "near"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item("i-1", 1, "250", 0, "")
			it.Description = tt.description
			candidates := []models.BookTransaction{
				book("near", "250", 0, ""),
				book("far", "250", 2, tt.bookRef),
			}

			res := Match([]models.BankStatementItem{it}, candidates, DefaultOptions())

			require.Len(t, res.Assignments, 1)
			assert.Equal(t, tt.want, res.Assignments[0].TransactionID)
		})
	}
}
