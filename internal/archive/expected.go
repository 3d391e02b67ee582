package archive

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/raddo/internal/common"
)

// Expected lists the current-scheme archive names that should exist for
// every calendar day from start to end inclusive, in chronological order.
// When end falls on the same day as now, that day is left out: the server
// does not publish an archive for today.
func Expected(start, end, now time.Time) ([]string, error) {
	start, end = Midnight(start), Midnight(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			common.ErrInvalidConfig, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	if end.Equal(Midnight(now)) {
		end = end.Add(-day)
	}

	names := make([]string, 0, int(end.Sub(start)/day)+1)
	for d := start; !d.After(end); d = d.Add(day) {
		names = append(names, DayName(d))
	}
	return names, nil
}
