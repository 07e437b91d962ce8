package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		layout   string
		wantErr  bool
	}{
		{name: "ISO", input: "2024-03-05", expected: Date(2024, 3, 5), layout: DateLayoutISO},
		{name: "European dots", input: " 05.03.2024 ", expected: Date(2024, 3, 5), layout: DateLayoutEuropean},
		{name: "day first slash", input: "05/03/2024", expected: Date(2024, 3, 5), layout: DateLayoutSlash},
		{name: "with time truncated", input: "2024-03-05 13:45:00", expected: Date(2024, 3, 5), layout: DateLayoutFull},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, layout, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.layout, layout)
		})
	}
}

func TestPatternToLayout(t *testing.T) {
	tests := []struct {
		pattern string
		layout  string
		wantErr bool
	}{
		{pattern: "dd/MM/yyyy", layout: "02/01/2006"},
		{pattern: "yyyy-MM-dd", layout: "2006-01-02"},
		{pattern: "d MMM yyyy", layout: "2 Jan 2006"},
		{pattern: "dd.MM.yy", layout: "02.01.06"},
		{pattern: "yyyy-MM-dd'T'HH:mm:ss", layout: "2006-01-02T15:04:05"},
		{pattern: "yyyyMMdd", layout: "20060102"},
		{pattern: "dd/QQ/yyyy", wantErr: true},
		{pattern: "dd 'at", wantErr: true},
		{pattern: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := PatternToLayout(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.layout, got)
		})
	}
}

func TestParseWithPattern(t *testing.T) {
	got, err := ParseWithPattern("31/01/2024", "dd/MM/yyyy")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 1, 31), got)

	got, err = ParseWithPattern("20240131", "yyyyMMdd")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 1, 31), got)

	_, err = ParseWithPattern("2024/01/31", "dd/MM/yyyy")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(a, b))
	assert.Equal(t, 3, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 1, DaysBetween(Date(2024, 2, 29), Date(2024, 3, 1)))
}

func TestMonthBounds(t *testing.T) {
	assert.Equal(t, Date(2024, 2, 1), StartOfMonth(Date(2024, 2, 17)))
	assert.Equal(t, Date(2024, 2, 29), EndOfMonth(Date(2024, 2, 17)))
	assert.Equal(t, Date(2023, 12, 31), EndOfMonth(Date(2023, 12, 1)))
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	in := time.Date(2024, 5, 1, 6, 30, 0, 0, loc)
	assert.Equal(t, Date(2024, 5, 1), DateOnly(in))
	assert.Equal(t, "2024-05-01", ToISODate(in))
}
