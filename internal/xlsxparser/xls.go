package xlsxparser

import (
	"bytes"
	"fmt"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"

	"github.com/extrame/xls"
)

// XLSAdapter implements parser.Parser for legacy BIFF (.xls) workbooks,
// which several banks still export. Column selection and normalization
// are the same as for XLSX.
type XLSAdapter struct {
	parser.BaseParser
}

// NewXLSAdapter creates a legacy Excel statement parser.
func NewXLSAdapter(logger logging.Logger) *XLSAdapter {
	return &XLSAdapter{BaseParser: parser.NewBaseParser(models.FormatXLS, logger)}
}

// Parse implements parser.Parser.
func (a *XLSAdapter) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	cfg = cfg.WithDefaults()

	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, a.Fail(0, fmt.Errorf("failed to open workbook: %w", err))
	}
	sheet := findSheet(wb, cfg.Sheet)
	if sheet == nil {
		if cfg.Sheet != "" {
			return nil, a.Fail(0, fmt.Errorf("sheet %q not found", cfg.Sheet))
		}
		return nil, a.Fail(0, parser.ErrNoDataRows)
	}

	return parseRows(&a.BaseParser, cfg, sheetRows(sheet))
}

func findSheet(wb *xls.WorkBook, name string) *xls.WorkSheet {
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		if name == "" || s.Name == name {
			return s
		}
	}
	return nil
}

// sheetRows flattens a worksheet; missing rows become empty rows so line
// numbers match the spreadsheet.
func sheetRows(s *xls.WorkSheet) [][]string {
	rows := make([][]string, 0, int(s.MaxRow)+1)
	for i := 0; i <= int(s.MaxRow); i++ {
		row := s.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows
}
