package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/raddo/internal/archive"
	"github.com/dmitrijs2005/raddo/internal/inventory"
	"github.com/dmitrijs2005/raddo/internal/logging"
	"github.com/dmitrijs2005/raddo/internal/manifest"
	"github.com/dmitrijs2005/raddo/internal/netx"
	"github.com/dmitrijs2005/raddo/internal/shard"
)

// DefaultMaxRetryDelay caps the exponential pause between attempts.
const DefaultMaxRetryDelay = 30 * time.Second

// Engine runs synchronizations. It holds collaborators only; everything
// specific to a run travels in Options.
type Engine struct {
	fetcher  netx.Fetcher
	logger   logging.Logger
	observer Observer
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock replaces time.Now, which decides what "yesterday" is.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine downloading through fetcher.
func New(fetcher netx.Fetcher, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	e := &Engine{
		fetcher:  fetcher,
		logger:   logger,
		observer: func(Event) {},
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the mutable state of one synchronization.
type run struct {
	opts   Options
	logger logging.Logger
	store  *manifest.Store
	report *Report

	knownCurrent archive.Set
	knownLegacy  archive.Set
}

// Run synchronizes the local directory with the remote archive for the
// requested range. Per-file failures are recorded in the report and do not
// produce an error; configuration errors, filesystem errors and
// cancellation do. The returned report is never nil when the range was
// valid, even alongside an error.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = DefaultMaxRetryDelay
	}

	now := e.now()
	rng, err := archive.NormalizeRange(opts.Start, opts.End, now)
	if err != nil {
		return nil, err
	}
	expected, err := archive.Expected(rng.Start, rng.End, now)
	if err != nil {
		return nil, err
	}

	r := &run{
		opts:  opts,
		store: manifest.New(opts.Root),
		report: &Report{
			RunID:     uuid.NewString(),
			Range:     rng,
			StartedAt: now,
			Expected:  expected,
		},
	}
	r.logger = e.logger.With("run_id", r.report.RunID)
	defer func() { r.report.FinishedAt = e.now() }()

	r.logger.Info(ctx, "synchronization started",
		"range", rng.String(), "root", opts.Root, "expected", len(expected))

	if fi, err := os.Stat(opts.Root); err != nil {
		return r.report, fmt.Errorf("local directory: %w", err)
	} else if !fi.IsDir() {
		return r.report, fmt.Errorf("local directory %s is not a directory", opts.Root)
	}

	if err := e.loadKnown(ctx, r); err != nil {
		return r.report, err
	}

	r.report.Missing = missing(expected, r.knownCurrent, r.knownLegacy)
	e.observer(Event{Kind: EventMissing, Count: len(r.report.Missing), Names: r.report.Missing})
	r.logger.Info(ctx, "missing archives computed", "missing", len(r.report.Missing))

	for _, name := range r.report.Missing {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		res, err := e.retrieve(ctx, r, name)
		r.report.Files = append(r.report.Files, res)
		if err != nil {
			return r.report, err
		}
	}

	r.logger.Info(ctx, "synchronization finished",
		"succeeded", len(r.report.Succeeded),
		"covered", r.report.Count(StateCovered),
		"failed", r.report.Count(StateFailed),
		"legacy_data", r.report.LegacyData)
	return r.report, nil
}

// loadKnown fills the known sets from the manifest, or from a scan of the
// local directory, in which case the manifest is written from the scan.
func (e *Engine) loadKnown(ctx context.Context, r *run) error {
	switch {
	case r.opts.ForceRedownload:
		r.knownCurrent, r.knownLegacy = archive.NewSet(), archive.NewSet()
		r.report.KnownFrom = KnownFromNothing

	case r.opts.ForceRescan || !r.store.Exists():
		inv, err := inventory.Scan(ctx, r.opts.Root)
		if err != nil {
			return err
		}
		created, err := r.store.Create(inv.Current.Sorted())
		if err != nil {
			return fmt.Errorf("create manifest: %w", err)
		}
		if len(inv.Legacy) > 0 {
			if err := r.store.Append(inv.Legacy.Sorted()); err != nil {
				return fmt.Errorf("update manifest: %w", err)
			}
		}
		for _, sk := range inv.Skipped {
			r.logger.Warn(ctx, "skipping unreadable path", "path", sk.Path, "err", sk.Err)
		}
		r.logger.Info(ctx, "local directory scanned",
			"dirs", inv.Dirs, "current", len(inv.Current), "legacy", len(inv.Legacy), "manifest_created", created)
		r.knownCurrent, r.knownLegacy = inv.Current, inv.Legacy
		r.report.KnownFrom = KnownFromScan

	default:
		set, err := r.store.Read()
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		r.knownCurrent, r.knownLegacy = set.Split()
		r.report.KnownFrom = KnownFromManifest
	}

	r.report.KnownCurrent = len(r.knownCurrent)
	r.report.KnownLegacy = len(r.knownLegacy)
	e.observer(Event{Kind: EventKnown, Count: len(r.knownCurrent) + len(r.knownLegacy)})
	return nil
}

// missing keeps the expected names that neither exist themselves nor are
// covered by a known month archive. Order is preserved.
func missing(expected []string, current, legacy archive.Set) []string {
	out := make([]string, 0, len(expected))
	for _, name := range expected {
		if current.Has(name) {
			continue
		}
		if month, ok := archive.LegacyName(name); ok && legacy.Has(month) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// retrieve drives one file to a terminal state. The error is non-nil only
// for conditions that end the whole run.
func (e *Engine) retrieve(ctx context.Context, r *run, name string) (res FileResult, err error) {
	started := time.Now()
	res.Name = name
	defer func() { res.Duration = time.Since(started) }()

	m := newFileMachine(name, r.logger)
	month, _ := archive.LegacyName(name)
	year, _ := archive.Year(name)

	// A month archive credited earlier in this run covers the rest of the
	// month.
	if r.knownLegacy.Has(month) {
		if err := m.fire(ctx, eventCover); err != nil {
			return res, err
		}
		res.State, res.Archive = m.current(), month
		e.observer(Event{Kind: EventCovered, File: name, Archive: month})
		return res, nil
	}

	if err := m.fire(ctx, eventBegin); err != nil {
		return res, err
	}

	bo := r.newBackOff()
	dst := filepath.Join(r.opts.Root, name)
	for res.Attempts <= r.opts.MaxRetries {
		if res.Attempts > 0 {
			if err := e.sleep(ctx, bo.NextBackOff()); err != nil {
				res.State, res.Err = StateFailed, err
				return res, err
			}
		}

		url := r.opts.primaryURL(name)
		e.observer(Event{Kind: EventAttempt, File: name, URL: url, Attempt: res.Attempts + 1})
		n, err := e.fetcher.Fetch(ctx, url, dst)
		if err != nil && ctx.Err() != nil {
			res.State, res.Err = StateFailed, ctx.Err()
			return res, ctx.Err()
		}

		switch netx.Classify(err) {
		case netx.OutcomeSuccess:
			return e.credit(ctx, r, m, res, name, SourcePrimary, n)

		case netx.OutcomeNotFound:
			if err := m.fire(ctx, eventNotFound); err != nil {
				return res, err
			}
			if _, ok := shard.Locate(r.opts.Root, month); ok {
				r.logger.Info(ctx, "month archive already present", "file", name, "archive", month)
				return e.credit(ctx, r, m, res, month, SourceLocal, 0)
			}

			furl := r.opts.fallbackURL(year, month)
			e.observer(Event{Kind: EventFallback, File: name, Archive: month, URL: furl, Attempt: res.Attempts + 1})
			n, ferr := e.fetcher.Fetch(ctx, furl, filepath.Join(r.opts.Root, month))
			if ferr != nil && ctx.Err() != nil {
				res.State, res.Err = StateFailed, ctx.Err()
				return res, ctx.Err()
			}
			if ferr == nil {
				return e.credit(ctx, r, m, res, month, SourceFallback, n)
			}
			err = fmt.Errorf("%w; fallback: %w", err, ferr)
			if ferr := m.fire(ctx, eventFallbackFailed); ferr != nil {
				return res, ferr
			}
		}

		res.Attempts++
		res.Err = err
		r.logger.Warn(ctx, "attempt failed",
			"file", name, "attempt", res.Attempts, "max_retries", r.opts.MaxRetries, "err", err)
		e.observer(Event{Kind: EventAttemptFailed, File: name, Attempt: res.Attempts, Err: err})
	}

	if err := m.fire(ctx, eventGiveUp); err != nil {
		return res, err
	}
	res.State = m.current()
	r.logger.Warn(ctx, "giving up on file", "file", name, "attempts", res.Attempts, "err", res.Err)
	e.observer(Event{Kind: EventFailed, File: name, Attempt: res.Attempts, Err: res.Err})
	return res, nil
}

// credit records a successful retrieval: the manifest is extended right
// away so an interrupted run keeps what it already fetched.
func (e *Engine) credit(ctx context.Context, r *run, m *fileMachine, res FileResult, archiveName string, src Source, n int64) (FileResult, error) {
	if err := m.fire(ctx, eventSucceed); err != nil {
		return res, err
	}
	res.State, res.Archive, res.Source, res.Bytes, res.Err = m.current(), archiveName, src, n, nil

	if err := r.store.Append([]string{archiveName}); err != nil {
		return res, fmt.Errorf("update manifest: %w", err)
	}
	r.report.Succeeded = append(r.report.Succeeded, archiveName)

	if archiveName != res.Name {
		r.knownLegacy.Add(archiveName)
		r.report.LegacyData = true
	} else {
		r.knownCurrent.Add(archiveName)
	}

	r.logger.Info(ctx, "archive retrieved", "file", res.Name, "archive", archiveName, "source", string(src), "bytes", n)
	e.observer(Event{Kind: EventRetrieved, File: res.Name, Archive: archiveName, Source: src, Bytes: n})
	return res, nil
}

func (r *run) newBackOff() backoff.BackOff {
	if r.opts.RetryDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryDelay
	b.MaxInterval = r.opts.MaxRetryDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
