package models

import (
	"fmt"
	"time"

	"fjacquet/bank-recon/internal/dateutils"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a date-only range.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: dateutils.DateOnly(start), End: dateutils.DateOnly(end)}
}

// Valid reports whether Start <= End and neither is zero.
func (dr DateRange) Valid() bool {
	return !dr.Start.IsZero() && !dr.End.IsZero() && !dr.End.Before(dr.Start)
}

// Contains reports whether the calendar day of t falls inside the range.
func (dr DateRange) Contains(t time.Time) bool {
	d := dateutils.DateOnly(t)
	return !d.Before(dateutils.DateOnly(dr.Start)) && !d.After(dateutils.DateOnly(dr.End))
}

// Extend widens the range by days on both sides.
func (dr DateRange) Extend(days int) DateRange {
	return DateRange{
		Start: dateutils.DateOnly(dr.Start).AddDate(0, 0, -days),
		End:   dateutils.DateOnly(dr.End).AddDate(0, 0, days),
	}
}

// Merge combines this date range with another, returning the overall range.
func (dr DateRange) Merge(other DateRange) DateRange {
	start, end := dr.Start, dr.End
	if start.IsZero() || (!other.Start.IsZero() && other.Start.Before(start)) {
		start = other.Start
	}
	if end.IsZero() || (!other.End.IsZero() && other.End.After(end)) {
		end = other.End
	}
	return DateRange{Start: start, End: end}
}

// String returns the range as "YYYY-MM-DD..YYYY-MM-DD".
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s..%s", dateutils.ToISODate(dr.Start), dateutils.ToISODate(dr.End))
}
