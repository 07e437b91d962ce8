package camtparser

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/xmlutils"

	"github.com/shopspring/decimal"
	"gopkg.in/xmlpath.v2"
)

// notProvided is the ISO 20022 placeholder for an absent end-to-end id.
const notProvided = "NOTPROVIDED"

// entryResult is the outcome of converting one Ntry node.
type entryResult struct {
	line    *models.NormalizedLine
	skipped *models.SkippedRow
}

// convertEntry turns the Ntry node at ordinal into a statement line.
func (a *Adapter) convertEntry(ordinal int, entry *xmlpath.Node, e *xmlutils.Evaluator) entryResult {
	p := a.paths.EntryPaths
	skip := func(format string, args ...interface{}) entryResult {
		return entryResult{skipped: &models.SkippedRow{Line: ordinal, Reason: fmt.Sprintf(format, args...)}}
	}

	amountStr := e.First(entry, p.Amount)
	if amountStr == "" {
		return skip("missing amount")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return skip("invalid amount %q", amountStr)
	}
	amount, err = signed(amount.Abs(), e.First(entry, p.CreditDebitInd))
	if err != nil {
		return skip("%v", err)
	}

	dateStr := e.FirstOf(entry, p.BookingDate, p.BookingDateTm, p.ValueDate)
	if dateStr == "" {
		return skip("missing booking date")
	}
	date, err := isoDate(dateStr)
	if err != nil {
		return skip("invalid date %q", dateStr)
	}

	reference := e.First(entry, p.AccountSvcRef)
	if reference == "" {
		if id := e.First(entry, p.EndToEndID); id != notProvided {
			reference = id
		}
	}

	description := strings.Join(e.All(entry, p.RemittanceInfo), " ")
	if description == "" {
		description = e.FirstOf(entry, p.AddTxInfo, p.AddEntryInfo)
	}

	return entryResult{line: &models.NormalizedLine{
		LineNumber:  ordinal,
		Date:        date,
		Amount:      amount,
		Description: description,
		Reference:   reference,
		Raw:         strings.TrimSpace(fmt.Sprintf("%s %s %s %s", dateStr, e.First(entry, p.CreditDebitInd), amountStr, reference)),
	}}
}

// balances finds the opening and closing booked balances. A previous
// closing balance (PRCD) stands in for a missing opening one.
func (a *Adapter) balances(nodes []*xmlpath.Node) (opening, closing *decimal.Decimal) {
	e := xmlutils.NewEvaluator()
	p := a.paths.BalancePaths
	var previous *decimal.Decimal

	for _, n := range nodes {
		amount, err := decimal.NewFromString(e.First(n, p.Amount))
		if err != nil {
			continue
		}
		amount, err = signed(amount.Abs(), e.First(n, p.CreditDebitInd))
		if err != nil {
			continue
		}
		switch strings.ToUpper(e.First(n, p.TypeCode)) {
		case xmlutils.BalanceOpeningBooked:
			opening = &amount
		case xmlutils.BalanceClosingBooked:
			closing = &amount
		case xmlutils.BalancePreviousClosed:
			previous = &amount
		}
	}
	if opening == nil {
		opening = previous
	}
	return opening, closing
}

func signed(magnitude decimal.Decimal, indicator string) (decimal.Decimal, error) {
	switch strings.ToUpper(indicator) {
	case xmlutils.IndicatorCredit:
		return magnitude, nil
	case xmlutils.IndicatorDebit:
		return magnitude.Neg(), nil
	}
	return decimal.Zero, fmt.Errorf("unknown credit/debit indicator %q", indicator)
}

// isoDate accepts an ISODate or the date part of an ISODateTime.
func isoDate(value string) (time.Time, error) {
	if len(value) > len(dateutils.DateLayoutISO) {
		value = value[:len(dateutils.DateLayoutISO)]
	}
	return dateutils.ParseWithPattern(value, "yyyy-MM-dd")
}
