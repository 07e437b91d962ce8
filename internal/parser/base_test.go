package parser

import (
	"errors"
	"testing"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseParser(t *testing.T) {
	t.Run("with provided logger", func(t *testing.T) {
		mockLog := logging.NewMockLogger()
		base := NewBaseParser(models.FormatDelimited, mockLog)
		assert.Equal(t, mockLog, base.GetLogger())
		assert.Equal(t, models.FormatDelimited, base.Format())
	})

	t.Run("with nil logger", func(t *testing.T) {
		base := NewBaseParser(models.FormatXLSX, nil)
		assert.NotNil(t, base.GetLogger())
	})
}

func TestBaseParser_SetLogger(t *testing.T) {
	base := NewBaseParser(models.FormatDelimited, nil)
	mockLog := logging.NewMockLogger()

	base.SetLogger(mockLog)
	assert.Equal(t, mockLog, base.GetLogger())

	base.SetLogger(nil)
	assert.Equal(t, mockLog, base.GetLogger(), "nil must not replace the logger")
}

func TestBaseParser_Finish(t *testing.T) {
	cfg := models.ParserConfig{Name: "bank-a", Format: models.FormatDelimited,
		DateFormat: "yyyy-MM-dd", Columns: models.ColumnMap{Date: models.Col(0), Amount: models.Col(1)}}

	t.Run("no data rows", func(t *testing.T) {
		base := NewBaseParser(models.FormatDelimited, logging.NewMockLogger())
		_, err := base.Finish(cfg, NewNormalizer(cfg), &models.ParseResult{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, reconerr.ErrParse))
		assert.True(t, errors.Is(err, ErrNoDataRows))
	})

	t.Run("required column never present", func(t *testing.T) {
		base := NewBaseParser(models.FormatDelimited, logging.NewMockLogger())
		n := NewNormalizer(cfg)
		res := &models.ParseResult{}
		_, skipped := n.Normalize(1, "2024-01-01", cells("2024-01-01"))
		res.Skipped = append(res.Skipped, *skipped)

		_, err := base.Finish(cfg, n, res)
		var mismatch *reconerr.ConfigMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, []string{"amount"}, mismatch.Missing)
		assert.True(t, errors.Is(err, reconerr.ErrParse))
	})

	t.Run("logs summary", func(t *testing.T) {
		mockLog := logging.NewMockLogger()
		base := NewBaseParser(models.FormatDelimited, mockLog)
		n := NewNormalizer(cfg)
		line, _ := n.Normalize(1, "", cells("2024-01-01", "10"))
		res := &models.ParseResult{Lines: []models.NormalizedLine{*line}}

		out, err := base.Finish(cfg, n, res)
		require.NoError(t, err)
		assert.Same(t, res, out)
		assert.True(t, mockLog.HasEntry("DEBUG", "Parsed statement"))
	})
}
