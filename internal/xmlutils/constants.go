// Package xmlutils provides the xmlpath helpers used to read ISO 20022
// CAMT.053 bank-to-customer statements.
package xmlutils

// CAMT053 holds the XPath expressions for statement extraction. Statement,
// entry and balance paths are absolute; the rest are relative to the node
// they are evaluated on.
type CAMT053 struct {
	Statement string
	Entry     string
	Balance   string

	EntryPaths struct {
		Amount         string
		CreditDebitInd string
		BookingDate    string
		BookingDateTm  string
		ValueDate      string
		AccountSvcRef  string
		EndToEndID     string
		RemittanceInfo string
		AddEntryInfo   string
		AddTxInfo      string
	}

	BalancePaths struct {
		TypeCode       string
		Amount         string
		CreditDebitInd string
		Date           string
	}
}

// Balance type codes.
const (
	BalanceOpeningBooked  = "OPBD"
	BalanceClosingBooked  = "CLBD"
	// BalancePreviousClosed is used by some banks instead of OPBD.
	BalancePreviousClosed = "PRCD"
)

// Credit/debit indicators.
const (
	IndicatorCredit = "CRDT"
	IndicatorDebit  = "DBIT"
)

// DefaultCamt053XPaths returns the XPath expressions for CAMT.053.001.x.
func DefaultCamt053XPaths() CAMT053 {
	var camt CAMT053

	camt.Statement = "//BkToCstmrStmt/Stmt"
	camt.Entry = "//BkToCstmrStmt/Stmt/Ntry"
	camt.Balance = "//BkToCstmrStmt/Stmt/Bal"

	camt.EntryPaths.Amount = "Amt"
	camt.EntryPaths.CreditDebitInd = "CdtDbtInd"
	camt.EntryPaths.BookingDate = "BookgDt/Dt"
	camt.EntryPaths.BookingDateTm = "BookgDt/DtTm"
	camt.EntryPaths.ValueDate = "ValDt/Dt"
	camt.EntryPaths.AccountSvcRef = "AcctSvcrRef"
	camt.EntryPaths.EndToEndID = "NtryDtls/TxDtls/Refs/EndToEndId"
	camt.EntryPaths.RemittanceInfo = "NtryDtls/TxDtls/RmtInf/Ustrd"
	camt.EntryPaths.AddEntryInfo = "AddtlNtryInf"
	camt.EntryPaths.AddTxInfo = "NtryDtls/TxDtls/AddtlTxInf"

	camt.BalancePaths.TypeCode = "Tp/CdOrPrtry/Cd"
	camt.BalancePaths.Amount = "Amt"
	camt.BalancePaths.CreditDebitInd = "CdtDbtInd"
	camt.BalancePaths.Date = "Dt/Dt"

	return camt
}
