// Package matching pairs statement items with book transactions.
//
// Match is a pure function: it reads its inputs, never mutates them, and
// returns the same assignments for the same inputs. Applying the result is
// the reconciliation service's job.
package matching

import (
	"sort"
	"strconv"
	"strings"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/textutils"
)

// Options tunes the ranking.
type Options struct {
	// TieBreakByID resolves candidates equal on reference and date by the
	// smallest transaction id. When false such ties leave the item
	// unmatched.
	TieBreakByID bool
}

// DefaultOptions returns the standard ranking.
func DefaultOptions() Options {
	return Options{TieBreakByID: true}
}

// Assignment pairs one statement item with one book transaction.
type Assignment struct {
	ItemID         string
	LineNumber     int
	TransactionID  string
	ReferenceMatch bool
	DayDiff        int
}

// Ambiguity is an item left unmatched because its best candidates could
// not be separated.
type Ambiguity struct {
	ItemID         string
	LineNumber     int
	TransactionIDs []string
}

// Result is the outcome of one matching run.
type Result struct {
	Assignments []Assignment
	Ambiguous   []Ambiguity
}

// Candidate is a book transaction scored against one statement item.
type Candidate struct {
	Transaction    models.BookTransaction
	AmountMatch    bool
	ReferenceMatch bool
	DayDiff        int
}

// Match assigns each UNMATCHED item, in ascending line order, the best
// remaining candidate with exactly the same amount. A candidate is used at
// most once.
func Match(items []models.BankStatementItem, candidates []models.BookTransaction, opts Options) Result {
	pool := newPool(candidates)

	ordered := make([]models.BankStatementItem, 0, len(items))
	for _, item := range items {
		if item.NeedsAttention() {
			ordered = append(ordered, item)
		}
	}
	sortItems(ordered)

	var res Result
	for _, item := range ordered {
		ranked := rankAvailable(item, pool)
		if len(ranked) == 0 {
			continue
		}
		ties := leaders(ranked, opts)
		if len(ties) > 1 {
			ids := make([]string, len(ties))
			for i, c := range ties {
				ids[i] = c.Transaction.ID
			}
			res.Ambiguous = append(res.Ambiguous, Ambiguity{
				ItemID:         item.ID,
				LineNumber:     item.LineNumber,
				TransactionIDs: ids,
			})
			continue
		}
		best := ranked[0]
		pool.take(best.Transaction.ID)
		res.Assignments = append(res.Assignments, Assignment{
			ItemID:         item.ID,
			LineNumber:     item.LineNumber,
			TransactionID:  best.Transaction.ID,
			ReferenceMatch: best.ReferenceMatch,
			DayDiff:        best.DayDiff,
		})
	}
	return res
}

// Rank scores every candidate against item, best first. Candidates with a
// different amount are included after the exact ones, so a caller can
// offer them for a manual match.
func Rank(item models.BankStatementItem, candidates []models.BookTransaction) []Candidate {
	pool := newPool(candidates)
	out := make([]Candidate, 0, len(pool.order))
	for _, tx := range pool.order {
		out = append(out, score(item, tx))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AmountMatch != out[j].AmountMatch {
			return out[i].AmountMatch
		}
		if !out[i].AmountMatch && !out[i].Transaction.Amount.Equal(out[j].Transaction.Amount) {
			di := out[i].Transaction.Amount.Sub(item.Amount).Abs()
			dj := out[j].Transaction.Amount.Sub(item.Amount).Abs()
			if !di.Equal(dj) {
				return di.LessThan(dj)
			}
		}
		return better(out[i], out[j])
	})
	return out
}

func score(item models.BankStatementItem, tx models.BookTransaction) Candidate {
	return Candidate{
		Transaction:    tx,
		AmountMatch:    tx.Amount.Equal(item.Amount),
		ReferenceMatch: referenceMatch(item, tx),
		DayDiff:        dateutils.DaysBetween(item.TransactionDate, tx.Date),
	}
}

// referenceMatch compares the item reference with the transaction's. An item
// without one falls back to a reference found in its description.
func referenceMatch(item models.BankStatementItem, tx models.BookTransaction) bool {
	want := strings.TrimSpace(tx.Reference)
	if want == "" {
		return false
	}
	if ref := strings.TrimSpace(item.Reference); ref != "" {
		return ref == want
	}
	if ref := textutils.ExtractReference(item.Description); ref != "" && strings.EqualFold(ref, want) {
		return true
	}
	return textutils.ContainsReference(item.Description, want)
}

// rankAvailable returns the exact-amount candidates still in the pool, best
// first.
func rankAvailable(item models.BankStatementItem, p *pool) []Candidate {
	var out []Candidate
	for _, tx := range p.order {
		if p.used[tx.ID] || !tx.Amount.Equal(item.Amount) {
			continue
		}
		out = append(out, score(item, tx))
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// leaders returns the candidates sharing the top rank under opts.
func leaders(ranked []Candidate, opts Options) []Candidate {
	top := ranked[0]
	n := 1
	for n < len(ranked) {
		c := ranked[n]
		if c.ReferenceMatch != top.ReferenceMatch || c.DayDiff != top.DayDiff {
			break
		}
		if opts.TieBreakByID && CompareIDs(c.Transaction.ID, top.Transaction.ID) != 0 {
			break
		}
		n++
	}
	return ranked[:n]
}

// better orders candidates by reference match, then date distance, then id.
func better(a, b Candidate) bool {
	if a.ReferenceMatch != b.ReferenceMatch {
		return a.ReferenceMatch
	}
	if a.DayDiff != b.DayDiff {
		return a.DayDiff < b.DayDiff
	}
	return CompareIDs(a.Transaction.ID, b.Transaction.ID) < 0
}

// CompareIDs compares transaction ids numerically when both are integers
// and lexicographically otherwise.
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func sortItems(items []models.BankStatementItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].LineNumber != items[j].LineNumber {
			return items[i].LineNumber < items[j].LineNumber
		}
		return items[i].ID < items[j].ID
	})
}

// pool is the working set of candidates for one run.
type pool struct {
	order []models.BookTransaction
	used  map[string]bool
}

func newPool(candidates []models.BookTransaction) *pool {
	p := &pool{used: make(map[string]bool)}
	seen := make(map[string]bool, len(candidates))
	for _, tx := range candidates {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		p.order = append(p.order, tx)
	}
	return p
}

func (p *pool) take(id string) {
	p.used[id] = true
}
