// Package models defines the records kept in the run history database.
package models

import (
	"time"

	"github.com/dmitrijs2005/raddo/internal/syncer"
)

// Run is one synchronization.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	// RangeStart and RangeEnd are the normalized days searched.
	RangeStart time.Time
	RangeEnd   time.Time

	Root      string
	KnownFrom string

	Expected  int
	Missing   int
	Succeeded int
	Covered   int
	Failed    int
	Bytes     int64

	LegacyData bool

	// Error is the fatal error that ended the run early, if any.
	Error string
}

// RunFile is the outcome for one missing file of a run. Seq keeps the
// processing order.
type RunFile struct {
	RunID    string
	Seq      int
	Name     string
	Archive  string
	State    string
	Source   string
	Attempts int
	Bytes    int64
	Error    string
	Duration time.Duration
}

// FromReport converts an engine report. runErr is the error returned with
// the report, if any.
func FromReport(rep *syncer.Report, root string, runErr error) (*Run, []*RunFile) {
	run := &Run{
		ID:         rep.RunID,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		RangeStart: rep.Range.Start,
		RangeEnd:   rep.Range.End,
		Root:       root,
		KnownFrom:  string(rep.KnownFrom),
		Expected:   len(rep.Expected),
		Missing:    len(rep.Missing),
		Succeeded:  len(rep.Succeeded),
		Covered:    rep.Count(syncer.StateCovered),
		Failed:     rep.Count(syncer.StateFailed),
		Bytes:      rep.Bytes(),
		LegacyData: rep.LegacyData,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	files := make([]*RunFile, 0, len(rep.Files))
	for i, f := range rep.Files {
		rf := &RunFile{
			RunID:    rep.RunID,
			Seq:      i,
			Name:     f.Name,
			Archive:  f.Archive,
			State:    string(f.State),
			Source:   string(f.Source),
			Attempts: f.Attempts,
			Bytes:    f.Bytes,
			Duration: f.Duration,
		}
		if f.Err != nil {
			rf.Error = f.Err.Error()
		}
		files = append(files, rf)
	}
	return run, files
}
