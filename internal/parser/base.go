package parser

import (
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"
)

// BaseParser provides the logger plumbing and result finishing shared by the
// format adapters. Adapters embed it:
//
//	type Adapter struct {
//		parser.BaseParser
//	}
type BaseParser struct {
	logger logging.Logger
	format models.StatementFormat
}

// NewBaseParser creates a BaseParser for format. A nil logger is replaced by
// the default logrus adapter.
func NewBaseParser(format models.StatementFormat, logger logging.Logger) BaseParser {
	return BaseParser{
		logger: logging.OrDefault(logger),
		format: format,
	}
}

// SetLogger replaces the logger. Nil is ignored.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the current logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Format returns the statement format this parser reads.
func (b *BaseParser) Format() models.StatementFormat {
	return b.format
}

// Fail wraps err as a file-level ParseError for this parser's format.
func (b *BaseParser) Fail(line int, err error) error {
	return &reconerr.ParseError{Format: string(b.format), Line: line, Err: err}
}

// Finish applies the file-level checks every format shares: a file with no
// data rows is a ParseError, and required columns that never appeared on any
// row mean the config does not describe this file. n may be nil for formats
// without column mappings.
func (b *BaseParser) Finish(cfg models.ParserConfig, n *Normalizer, res *models.ParseResult) (*models.ParseResult, error) {
	if res.DataRows() == 0 {
		return nil, b.Fail(0, ErrNoDataRows)
	}
	if n != nil {
		if missing := n.Missing(); len(missing) > 0 {
			return nil, &reconerr.ConfigMismatchError{Config: cfg.Name, Missing: missing}
		}
	}

	b.logger.Debug("Parsed statement",
		logging.F(logging.FieldParserConfig, cfg.Name),
		logging.F(logging.FieldFormat, string(b.format)),
		logging.F(logging.FieldCount, len(res.Lines)),
		logging.F(logging.FieldSkipped, len(res.Skipped)))

	return res, nil
}
