// Package factory builds statement parsers by format.
package factory

import (
	"fmt"

	"fjacquet/bank-recon/internal/camtparser"
	"fjacquet/bank-recon/internal/delimitedparser"
	"fjacquet/bank-recon/internal/fixedwidthparser"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/parser"
	"fjacquet/bank-recon/internal/reconerr"
	"fjacquet/bank-recon/internal/xlsxparser"
)

// Formats lists every supported statement format.
var Formats = []models.StatementFormat{
	models.FormatDelimited,
	models.FormatFixedWidth,
	models.FormatXLSX,
	models.FormatXLS,
	models.FormatCAMT053,
}

// GetParserWithLogger returns a parser for format.
func GetParserWithLogger(format models.StatementFormat, logger logging.Logger) (parser.Parser, error) {
	switch format {
	case models.FormatDelimited:
		return delimitedparser.NewAdapter(logger), nil
	case models.FormatFixedWidth:
		return fixedwidthparser.NewAdapter(logger), nil
	case models.FormatXLSX:
		return xlsxparser.NewAdapter(logger), nil
	case models.FormatXLS:
		return xlsxparser.NewXLSAdapter(logger), nil
	case models.FormatCAMT053:
		return camtparser.NewAdapter(logger), nil
	default:
		return nil, fmt.Errorf("unknown statement format: %s", format)
	}
}

// Dispatcher is a parser.Parser that picks the format parser named by each
// config. Parsers are built once.
type Dispatcher struct {
	parsers map[models.StatementFormat]parser.Parser
}

// NewDispatcher builds a parser for every supported format.
func NewDispatcher(logger logging.Logger) *Dispatcher {
	d := &Dispatcher{parsers: make(map[models.StatementFormat]parser.Parser, len(Formats))}
	for _, format := range Formats {
		p, err := GetParserWithLogger(format, logger)
		if err != nil {
			// Formats and GetParserWithLogger are kept in step.
			panic(err)
		}
		d.parsers[format] = p
	}
	return d
}

// Parse implements parser.Parser.
func (d *Dispatcher) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	p, ok := d.parsers[cfg.Format]
	if !ok {
		return nil, &reconerr.ParseError{Format: string(cfg.Format), Err: fmt.Errorf("unknown statement format: %s", cfg.Format)}
	}
	return p.Parse(cfg, raw)
}
