// Package xlsxparser reads bank statements exported as Excel workbooks.
package xlsxparser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"

	"github.com/xuri/excelize/v2"
)

// Adapter implements parser.Parser for XLSX statements.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates an XLSX statement parser.
func NewAdapter(logger logging.Logger) *Adapter {
	return &Adapter{BaseParser: parser.NewBaseParser(models.FormatXLSX, logger)}
}

// Parse implements parser.Parser. Cells are read as displayed; a date cell
// without a date format shows its serial number, which is converted.
func (a *Adapter) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	cfg = cfg.WithDefaults()

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, a.Fail(0, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.GetLogger().WithError(cerr).Warn("Failed to close workbook")
		}
	}()

	sheet := cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, a.Fail(0, parser.ErrNoDataRows)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, a.Fail(0, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}

	return parseRows(&a.BaseParser, cfg, rows)
}

// parseRows normalizes worksheet rows. The header row ending the skipped
// rows names the columns for configs that select by name.
func parseRows(a *parser.BaseParser, cfg models.ParserConfig, rows [][]string) (*models.ParseResult, error) {
	n := parser.NewNormalizer(cfg)
	n.DateFallback = serialDate
	res := &models.ParseResult{}
	headersLeft := cfg.SkipHeaderRows
	var names map[string]int

	for i, row := range rows {
		if blank(row) {
			continue
		}
		if headersLeft > 0 {
			headersLeft--
			if headersLeft == 0 {
				names = headerIndex(row)
			}
			continue
		}

		cell := func(col *models.Column) (string, bool) {
			idx := col.Index
			if col.Name != "" {
				j, ok := names[strings.ToLower(strings.TrimSpace(col.Name))]
				if !ok {
					return "", false
				}
				idx = j
			}
			if idx < 0 || idx >= len(row) {
				return "", false
			}
			return row[idx], true
		}

		nl, skipped := n.Normalize(i+1, strings.Join(row, "\t"), cell)
		if skipped != nil {
			a.GetLogger().Debug("Skipping statement row",
				logging.F(logging.FieldLine, skipped.Line),
				logging.F(logging.FieldReason, skipped.Reason))
			res.Skipped = append(res.Skipped, *skipped)
			continue
		}
		res.Lines = append(res.Lines, *nl)
	}

	return a.Finish(cfg, n, res)
}

// serialDate converts an Excel 1900-system serial number.
func serialDate(value string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func headerIndex(row []string) map[string]int {
	names := make(map[string]int, len(row))
	for i, h := range row {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := names[key]; !dup {
			names[key] = i
		}
	}
	return names
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
