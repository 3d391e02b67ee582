package archive

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Hourly rasters inside the day archives are named RW-YYYYMMDD-HHMM.asc.
// RADOLAN RW sums end at HH:50; unless told otherwise the timestamp is
// corrected to the full hour.
var ascPattern = regexp.MustCompile(`^` + Prefix + `-(\d{8})-(\d{4})\.asc$`)

// ASCTimestamp parses the timestamp encoded in a raster file name.
func ASCTimestamp(filename string, noTimeCorrection bool) (time.Time, error) {
	base := filepath.Base(filename)
	m := ascPattern.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a RADOLAN asc file name: %q", base)
	}

	t, err := time.Parse("200601021504", m[1]+m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp of %q: %w", base, err)
	}
	if !noTimeCorrection {
		t = t.Truncate(time.Hour)
	}
	return t, nil
}
