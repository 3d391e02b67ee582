package archive

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/raddo/internal/common"
)

const day = 24 * time.Hour

// Range is an inclusive range of calendar days, stored as UTC midnights.
type Range struct {
	Start time.Time
	End   time.Time
}

// Midnight truncates t to the start of its calendar day, keeping the
// calendar date of t's own location but expressing it in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeRange builds the range to search. The end is clamped to the day
// before now because the server does not reliably publish same-day data.
// An inverted range is a configuration error.
func NormalizeRange(start, end, now time.Time) (Range, error) {
	start, end = Midnight(start), Midnight(end)
	yesterday := Midnight(now).Add(-day)

	if end.After(yesterday) {
		end = yesterday
	}
	if start.After(end) {
		return Range{}, fmt.Errorf("%w: end date %s is before start date %s",
			common.ErrInvalidConfig, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return Range{Start: start, End: end}, nil
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start)/day) + 1
}

// Contains reports whether t falls on one of the range's days.
func (r Range) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start) && t.Before(r.End.Add(day))
}

func (r Range) String() string {
	return fmt.Sprintf("%s - %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}
