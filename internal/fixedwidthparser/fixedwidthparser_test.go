package fixedwidthparser

import (
	"errors"
	"testing"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/models"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Layout: date(0,8) description(8,20) amount(28,12) indicator(40,2)
func mainframeConfig() models.ParserConfig {
	return models.ParserConfig{
		Name:           "mainframe",
		Format:         models.FormatFixedWidth,
		DateFormat:     "yyyyMMdd",
		SkipHeaderRows: 1,
		Columns: models.ColumnMap{
			Date:        models.Span(0, 8),
			Description: models.Span(8, 20),
			Amount:      models.Span(28, 12),
			Indicator:   models.Span(40, 2),
		},
	}
}

const mainframeStatement = "DATE    DESCRIPTION         AMOUNT      DC\r\n" +
	"20240105Payroll             1,500.00    CR\r\n" +
	"\r\n" +
	"20240106Rent                  800.00    DB\r\n" +
	"2024010XBroken              1.00        DB\r\n" +
	"20240107Short\n"

func TestParse_Indicator(t *testing.T) {
	res, err := NewAdapter(logging.NewMockLogger()).Parse(mainframeConfig(), []byte(mainframeStatement))
	require.NoError(t, err)

	require.Len(t, res.Lines, 2)
	assert.Equal(t, 2, res.Lines[0].LineNumber)
	assert.Equal(t, "1500", res.Lines[0].Amount.String())
	assert.Equal(t, "Payroll", res.Lines[0].Description)
	assert.Equal(t, 4, res.Lines[1].LineNumber)
	assert.Equal(t, "-800", res.Lines[1].Amount.String())
	assert.Equal(t, dateutils.Date(2024, time.January, 6), res.Lines[1].Date)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 5, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "invalid date")
	assert.Equal(t, 6, res.Skipped[1].Line)
	assert.Equal(t, "missing amount column", res.Skipped[1].Reason)
}

func TestParse_AllRowsTooShort(t *testing.T) {
	_, err := NewAdapter(nil).Parse(mainframeConfig(), []byte("header\n20240105Payroll\n"))
	var mismatch *reconerr.ConfigMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"amount", "indicator"}, mismatch.Missing)
}

func TestParse_Empty(t *testing.T) {
	_, err := NewAdapter(nil).Parse(mainframeConfig(), []byte("\n\n"))
	assert.True(t, errors.Is(err, reconerr.ErrParse))
}

func TestSlice(t *testing.T) {
	runes := []rune("Zürich 12")
	tests := []struct {
		start, width int
		want         string
		ok           bool
	}{
		{0, 6, "Zürich", true},
		{7, 5, "12", true},
		{9, 2, "", false},
		{0, 0, "", false},
		{-1, 3, "", false},
	}
	for _, tt := range tests {
		got, ok := Slice(runes, tt.start, tt.width)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}
