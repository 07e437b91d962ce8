// Package fixedwidthparser reads columnar text statements where every field
// sits at a fixed character offset.
package fixedwidthparser

import (
	"strings"

	"fjacquet/bank-recon/internal/fileutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"
)

// Adapter implements parser.Parser for fixed-width statements.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a fixed-width statement parser.
func NewAdapter(logger logging.Logger) *Adapter {
	return &Adapter{BaseParser: parser.NewBaseParser(models.FormatFixedWidth, logger)}
}

// Parse implements parser.Parser. Offsets count runes, not bytes, so
// decoded legacy encodings line up the same way as UTF-8.
func (a *Adapter) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	cfg = cfg.WithDefaults()

	text, err := fileutils.DecodeText(raw, cfg.Encoding)
	if err != nil {
		return nil, a.Fail(0, err)
	}

	n := parser.NewNormalizer(cfg)
	res := &models.ParseResult{}
	headersLeft := cfg.SkipHeaderRows

	for i, line := range strings.Split(string(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if headersLeft > 0 {
			headersLeft--
			continue
		}

		runes := []rune(line)
		cell := func(col *models.Column) (string, bool) {
			return Slice(runes, col.Start, col.Width)
		}

		nl, skipped := n.Normalize(i+1, line, cell)
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

// Slice returns the runes [start, start+width) of a line. A line that ends
// inside the span yields the partial text; one that ends before start does
// not contain the column at all.
func Slice(runes []rune, start, width int) (string, bool) {
	if start < 0 || width <= 0 || start >= len(runes) {
		return "", false
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), true
}
