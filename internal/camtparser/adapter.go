// Package camtparser reads ISO 20022 CAMT.053 bank-to-customer statements.
// Each Ntry element becomes one statement line; its ordinal is the line
// number. Opening and closing booked balances are reported when present.
package camtparser

import (
	"errors"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/xmlutils"
)

// ErrNoStatement is reported when the document has no BkToCstmrStmt/Stmt.
var ErrNoStatement = errors.New("document contains no CAMT.053 statement")

// Adapter implements parser.Parser for CAMT.053 XML.
type Adapter struct {
	parser.BaseParser
	paths     xmlutils.CAMT053
	processor *ConcurrentProcessor
}

// NewAdapter creates a CAMT.053 statement parser.
func NewAdapter(logger logging.Logger) *Adapter {
	a := &Adapter{
		BaseParser: parser.NewBaseParser(models.FormatCAMT053, logger),
		paths:      xmlutils.DefaultCamt053XPaths(),
	}
	a.processor = NewConcurrentProcessor(a.GetLogger())
	return a
}

// Parse implements parser.Parser. Column mappings, separators and date
// formats in cfg are ignored; CAMT.053 fixes them.
func (a *Adapter) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	root, err := xmlutils.ParseDocument(raw)
	if err != nil {
		return nil, a.Fail(0, err)
	}

	statements, err := xmlutils.Nodes(root, a.paths.Statement)
	if err != nil {
		return nil, a.Fail(0, err)
	}
	if len(statements) == 0 {
		return nil, &reconerr.ConfigMismatchError{Config: cfg.Name, Missing: []string{"BkToCstmrStmt/Stmt"}}
	}

	entries, err := xmlutils.Nodes(root, a.paths.Entry)
	if err != nil {
		return nil, a.Fail(0, err)
	}

	res := &models.ParseResult{}
	for _, out := range a.processor.ProcessEntries(entries, a.convertEntry) {
		if out.skipped != nil {
			a.GetLogger().Debug("Skipping statement entry",
				logging.F(logging.FieldLine, out.skipped.Line),
				logging.F(logging.FieldReason, out.skipped.Reason))
			res.Skipped = append(res.Skipped, *out.skipped)
			continue
		}
		res.Lines = append(res.Lines, *out.line)
	}

	balances, err := xmlutils.Nodes(root, a.paths.Balance)
	if err != nil {
		return nil, a.Fail(0, err)
	}
	res.OpeningBalance, res.ClosingBalance = a.balances(balances)

	return a.Finish(cfg, nil, res)
}
