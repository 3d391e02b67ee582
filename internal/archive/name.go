package archive

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Prefix is the product prefix of every RW archive.
const Prefix = "RW"

// Scheme tells which naming convention an archive name follows.
type Scheme int

const (
	SchemeUnknown Scheme = iota
	SchemeCurrent
	SchemeLegacy
)

func (s Scheme) String() string {
	switch s {
	case SchemeCurrent:
		return "current"
	case SchemeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

var (
	currentPattern = regexp.MustCompile(`^` + Prefix + `-(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})\.tar\.gz$`)
	legacyPattern  = regexp.MustCompile(`^` + Prefix + `-(?P<year>\d{4})(?P<month>\d{2})\.tar$`)
)

// Name is a parsed archive file name.
type Name struct {
	Scheme Scheme
	// Date is midnight UTC of the day (current) or of the first day of the
	// month (legacy).
	Date time.Time
}

// String renders the file name back.
func (n Name) String() string {
	switch n.Scheme {
	case SchemeCurrent:
		return DayName(n.Date)
	case SchemeLegacy:
		return MonthName(n.Date)
	default:
		return ""
	}
}

// DayName returns the current-scheme archive name for the day of t.
func DayName(t time.Time) string {
	return fmt.Sprintf("%s-%s.tar.gz", Prefix, t.Format("20060102"))
}

// MonthName returns the legacy-scheme archive name for the month of t.
func MonthName(t time.Time) string {
	return fmt.Sprintf("%s-%s.tar", Prefix, t.Format("200601"))
}

// Parse classifies a bare file name. The second result is false for names
// that follow neither scheme or encode an impossible date.
func Parse(filename string) (Name, bool) {
	if m := currentPattern.FindStringSubmatch(filename); m != nil {
		year, month, day := submatchInts(currentPattern, m)
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return Name{}, false
		}
		return Name{Scheme: SchemeCurrent, Date: t}, true
	}

	if m := legacyPattern.FindStringSubmatch(filename); m != nil {
		year, month, _ := submatchInts(legacyPattern, m)
		if month < 1 || month > 12 {
			return Name{}, false
		}
		return Name{Scheme: SchemeLegacy, Date: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}, true
	}

	return Name{}, false
}

// LegacyName maps any archive name to the legacy archive of its month. A
// legacy name maps to itself.
func LegacyName(filename string) (string, bool) {
	n, ok := Parse(filename)
	if !ok {
		return "", false
	}
	return MonthName(n.Date), true
}

// Year returns the four-digit year segment used by the historical endpoint.
func Year(filename string) (string, bool) {
	n, ok := Parse(filename)
	if !ok {
		return "", false
	}
	return n.Date.Format("2006"), true
}

func submatchInts(re *regexp.Regexp, submatches []string) (year, month, day int) {
	for idx, name := range re.SubexpNames() {
		v, err := strconv.Atoi(submatches[idx])
		if err != nil {
			continue
		}
		switch name {
		case "year":
			year = v
		case "month":
			month = v
		case "day":
			day = v
		}
	}
	return year, month, day
}
