package timex

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var layouts = []string{
	time.DateOnly,
	"20060102",
	"2006/01/02",
	"02.01.2006",
	time.RFC3339,
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate interprets s as a calendar day relative to now and returns its
// midnight in UTC. Fixed layouts are tried first, then English phrases such
// as "yesterday" or "3 days ago".
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	switch strings.ToLower(s) {
	case "today", "now":
		return midnight(now), nil
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}

	r, err := parser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return midnight(r.Time), nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
