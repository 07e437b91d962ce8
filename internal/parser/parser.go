// Package parser defines the statement parser contract and the row
// normalization shared by every statement format.
package parser

import (
	"fjacquet/bank-recon/internal/models"
)

// Parser turns raw statement bytes into normalized lines. Implementations are
// pure: the same config and bytes always produce the same result, nothing is
// persisted and no clock is read.
//
// Row-level failures are reported in ParseResult.Skipped. A returned error is
// always fatal for the whole file and matches reconerr.ErrParse.
type Parser interface {
	Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error)
}

// Func adapts an ordinary function to the Parser interface.
type Func func(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error)

// Parse calls f(cfg, raw).
func (f Func) Parse(cfg models.ParserConfig, raw []byte) (*models.ParseResult, error) {
	return f(cfg, raw)
}
