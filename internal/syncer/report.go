package syncer

import (
	"time"

	"github.com/dmitrijs2005/raddo/internal/archive"
)

// Source tells where a credited archive came from.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	// SourceLocal is a month archive that was already on disk when the
	// fallback was about to request it.
	SourceLocal Source = "local"
)

// KnownFrom tells how the set of locally present archives was obtained.
type KnownFrom string

const (
	KnownFromManifest KnownFrom = "manifest"
	KnownFromScan     KnownFrom = "scan"
	KnownFromNothing  KnownFrom = "forced"
)

// FileResult is the outcome for one missing file.
type FileResult struct {
	Name string
	// Archive is the name credited to the manifest; it differs from Name
	// when the month archive satisfied the day.
	Archive  string
	State    State
	Source   Source
	// Attempts counts failed attempts.
	Attempts int
	Bytes    int64
	Err      error
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Range      archive.Range
	StartedAt  time.Time
	FinishedAt time.Time

	KnownFrom    KnownFrom
	KnownCurrent int
	KnownLegacy  int

	Expected []string
	Missing  []string

	// Succeeded lists the archives credited in this run, in the order they
	// were credited.
	Succeeded []string
	Files     []FileResult

	// LegacyData is set when at least one day was satisfied by a month
	// archive.
	LegacyData bool
}

// Count returns the number of files that ended in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, f := range r.Files {
		if f.State == s {
			n++
		}
	}
	return n
}

// MonthCovered is the number of days satisfied by a month archive, either
// the one retrieved for the day itself or one credited earlier.
func (r *Report) MonthCovered() int {
	n := 0
	for _, f := range r.Files {
		if f.State != StateFailed && f.Archive != "" && f.Archive != f.Name {
			n++
		}
	}
	return n
}

// Failed lists the names of files that exhausted their attempts.
func (r *Report) Failed() []string {
	var names []string
	for _, f := range r.Files {
		if f.State == StateFailed {
			names = append(names, f.Name)
		}
	}
	return names
}

// Bytes is the total transferred.
func (r *Report) Bytes() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Bytes
	}
	return n
}

// Attempts is the total number of failed attempts over all files.
func (r *Report) Attempts() int {
	n := 0
	for _, f := range r.Files {
		n += f.Attempts
	}
	return n
}
