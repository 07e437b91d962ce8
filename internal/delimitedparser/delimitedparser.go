// Package delimitedparser reads CSV-like bank statements: any single-rune
// delimiter, optional header rows and legacy single-byte encodings.
package delimitedparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"
	"fjacquet/bank-recon/internal/reconerr"
)

// Adapter implements parser.Parser for delimited statements.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a delimited statement parser.
func NewAdapter(logger logging.Logger) *Adapter {
	return &Adapter{BaseParser: parser.NewBaseParser(models.FormatDelimited, logger)}
}

// Delimiter resolves the configured delimiter. The two-character literal
// `\t` stands for a tab.
func Delimiter(value string) (rune, error) {
	switch value {
	case "":
		return ',', nil
	case `\t`, "\t":
		return '\t', nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", value)
	}
	return runes[0], nil
}

// Parse implements parser.Parser.
func (a *Adapter) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	cfg = cfg.WithDefaults()

	delim, err := Delimiter(cfg.Delimiter)
	if err != nil {
		return nil, a.Fail(0, err)
	}
	text, err := fileutils.DecodeText(raw, cfg.Encoding)
	if err != nil {
		return nil, a.Fail(0, err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = delim != ' '

	n := parser.NewNormalizer(cfg)
	res := &models.ParseResult{}
	var header []string
	headersLeft := cfg.SkipHeaderRows
	var names map[string]int

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, a.Fail(perr.StartLine, perr.Err)
			}
			return nil, a.Fail(0, err)
		}
		if blank(record) {
			continue
		}
		line, _ := r.FieldPos(0)

		if headersLeft > 0 {
			headersLeft--
			header = record
			if headersLeft == 0 {
				names, err = resolveNames(cfg, header)
				if err != nil {
					return nil, err
				}
			}
			continue
		}

		cell := func(col *models.Column) (string, bool) {
			idx := col.Index
			if col.Name != "" {
				i, ok := names[headerKey(col.Name)]
				if !ok {
					return "", false
				}
				idx = i
			}
			if idx < 0 || idx >= len(record) {
				return "", false
			}
			return record[idx], true
		}

		nl, skipped := n.Normalize(line, strings.Join(record, string(delim)), cell)
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

// resolveNames maps lower-cased header cells to their index. A required
// column whose name is not in the header means the config is wrong for
// this file.
func resolveNames(cfg models.ParserConfig, header []string) (map[string]int, error) {
	names := make(map[string]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		if _, dup := names[key]; !dup {
			names[key] = i
		}
	}

	var missing []string
	for _, field := range cfg.RequiredColumnNames() {
		col := cfg.ColumnFor(field)
		if col == nil || col.Name == "" {
			continue
		}
		if _, ok := names[headerKey(col.Name)]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &reconerr.ConfigMismatchError{Config: cfg.Name, Missing: missing}
	}
	return names, nil
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
