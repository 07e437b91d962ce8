package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"fjacquet/bank-recon/internal/common"
	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Sheet names of the XLSX rendering.
const (
	SheetSummary     = "Summary"
	SheetOutstanding = "Outstanding"
)

// Generator renders summaries.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a new instance of Generator.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{logger: logging.OrDefault(logger).WithField(logging.FieldComponent, "report")}
}

// Generate renders s in format (json, csv or xlsx).
func (g *Generator) Generate(s *Summary, format string) ([]byte, error) {
	if err := validation.IsValidOutputFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return g.generateJSON(s)
	case FormatCSV:
		return g.generateCSV(s)
	default:
		return g.generateXLSX(s)
	}
}

func (g *Generator) generateJSON(s *Summary) ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return out, nil
}

// statementRow is one CSV line of the reconciliation statement.
type statementRow struct {
	Section     string `csv:"section"`
	Label       string `csv:"label"`
	Count       string `csv:"count"`
	Amount      string `csv:"amount"`
	Date        string `csv:"date"`
	Reference   string `csv:"reference"`
	Description string `csv:"description"`
}

func (g *Generator) generateCSV(s *Summary) ([]byte, error) {
	rows := summaryRows(s)
	for _, line := range s.Outstanding {
		rows = append(rows, statementRow{
			Section:     line.Side + "_" + line.Category,
			Label:       line.ID,
			Amount:      line.Amount.StringFixed(2),
			Date:        dateutils.ToISODate(line.Date),
			Reference:   line.Reference,
			Description: joinNotes(line.Description, line.Notes),
		})
	}
	out, err := common.MarshalCSV(rows, common.DefaultDelimiter)
	if err != nil {
		g.logger.WithError(err).Error("Failed to write CSV report")
		return nil, err
	}
	return out, nil
}

func summaryRows(s *Summary) []statementRow {
	balance := func(label string, v decimal.Decimal) statementRow {
		return statementRow{Section: "balance", Label: label, Amount: v.StringFixed(2)}
	}
	bucket := func(section, label string, b Bucket) statementRow {
		return statementRow{Section: section, Label: label, Count: strconv.Itoa(b.Count), Amount: b.Total.StringFixed(2)}
	}
	return []statementRow{
		balance("book_balance", s.BookBalance),
		bucket("bank_side", "unmatched_bank", s.UnmatchedBank),
		bucket("bank_side", "bank_only", s.BankOnly),
		balance("adjusted_book_balance", s.AdjustedBookBalance),
		balance("bank_balance", s.BankBalance),
		bucket("book_side", "outstanding_book", s.OutstandingBook),
		bucket("book_side", "book_only", s.BookOnly),
		balance("adjusted_bank_balance", s.AdjustedBankBalance),
		balance("difference", s.Difference),
		bucket("matched", "matched", s.Matched),
		{Section: "status", Label: string(s.Status), Amount: strconv.FormatBool(s.Balanced)},
	}
}

func (g *Generator) generateXLSX(s *Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			g.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SheetSummary, "A1", &[]interface{}{"Section", "Label", "Count", "Amount"}); err != nil {
		return nil, err
	}
	for i, row := range summaryRows(s) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{row.Section, row.Label, row.Count, row.Amount}
		if err := f.SetSheetRow(SheetSummary, cell, &values); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetOutstanding); err != nil {
		return nil, err
	}
	header := []interface{}{"Side", "Category", "ID", "Line", "Date", "Amount", "Reference", "Description", "Notes"}
	if err := f.SetSheetRow(SheetOutstanding, "A1", &header); err != nil {
		return nil, err
	}
	for i, line := range s.Outstanding {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		amountValue, _ := line.Amount.Float64()
		values := []interface{}{
			line.Side, line.Category, line.ID, line.LineNumber,
			dateutils.ToISODate(line.Date), amountValue,
			line.Reference, line.Description, line.Notes,
		}
		if err := f.SetSheetRow(SheetOutstanding, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		g.logger.WithError(err).Error("Failed to write XLSX report")
		return nil, fmt.Errorf("failed to write XLSX report: %w", err)
	}
	return buf.Bytes(), nil
}

func joinNotes(description, notes string) string {
	switch {
	case notes == "":
		return description
	case description == "":
		return notes
	default:
		return description + " (" + notes + ")"
	}
}
