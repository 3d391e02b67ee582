package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/raddo/internal/archive"
	"github.com/dmitrijs2005/raddo/internal/buildinfo"
	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/extract"
	"github.com/dmitrijs2005/raddo/internal/filex"
	"github.com/dmitrijs2005/raddo/internal/logging"
	"github.com/dmitrijs2005/raddo/internal/metrics"
	"github.com/dmitrijs2005/raddo/internal/mirror"
	"github.com/dmitrijs2005/raddo/internal/models"
	"github.com/dmitrijs2005/raddo/internal/netx"
	"github.com/dmitrijs2005/raddo/internal/shard"
	"github.com/dmitrijs2005/raddo/internal/store"
	"github.com/dmitrijs2005/raddo/internal/syncer"
	"github.com/dmitrijs2005/raddo/internal/ui"
)

// archiveUploader is the part of *mirror.Mirror the app needs.
type archiveUploader interface {
	Upload(ctx context.Context, root string, names []string) mirror.Result
}

// App runs one synchronization from a resolved configuration.
type App struct {
	config      *config.Config
	reader      *bufio.Reader
	out         io.Writer
	interactive bool
	printer     *ui.Printer
	logger      logging.Logger
	fetcher     netx.Fetcher
	now         func() time.Time
	getwd       func() (string, error)
	newMirror   func(ctx context.Context, cfg config.S3Config, logger logging.Logger) (archiveUploader, error)
}

// NewApp wires an App reading answers from in and printing to out.
func NewApp(c *config.Config, in io.Reader, out io.Writer, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	return &App{
		config:      c,
		reader:      bufio.NewReader(in),
		out:         out,
		interactive: stdinIsTerminal(in),
		printer:     ui.NewPrinter(out),
		logger:      logger,
		fetcher:     netx.NewClient(nil, c.FetchTimeout),
		now:         time.Now,
		getwd:       os.Getwd,
		newMirror: func(ctx context.Context, cfg config.S3Config, logger logging.Logger) (archiveUploader, error) {
			return mirror.New(ctx, cfg, logger)
		},
	}
}

// Run executes the whole pipeline: confirmations, synchronization, history,
// metrics, mirroring and the optional sort and extract steps. The returned
// error is nil when the run finished, even if some files failed.
func (a *App) Run(ctx context.Context) error {
	c := a.config
	c.ApplyComplete()
	if err := c.Validate(); err != nil {
		return err
	}

	now := a.now()
	start, end, err := c.Dates(now)
	if err != nil {
		return err
	}
	rng, err := archive.NormalizeRange(start, end, now)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(c.Directory)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	if !c.Yes {
		if err := a.confirm(root); err != nil {
			return err
		}
	}

	a.printer.Banner(buildinfo.Version(), root, c.PrimaryURL, rng)

	if root, err = filex.EnsureDir(root); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	engine := syncer.New(a.fetcher, a.logger,
		syncer.WithObserver(a.printer.Observe),
		syncer.WithClock(a.now))

	rep, runErr := engine.Run(ctx, syncer.Options{
		PrimaryURL:      c.PrimaryURL,
		FallbackURL:     c.FallbackURL,
		Root:            root,
		Start:           rng.Start,
		End:             rng.End,
		MaxRetries:      c.ErrorsAllowed,
		ForceRescan:     c.ForceRescan,
		ForceRedownload: c.ForceRedownload,
		RetryDelay:      c.RetryDelay,
	})
	if rep == nil {
		return runErr
	}

	a.recordHistory(ctx, rep, root, runErr)
	a.writeMetrics(ctx, rep)

	if runErr != nil {
		a.printer.Summary(rep, false)
		return runErr
	}

	a.mirrorArchives(ctx, root, rep)

	if err := a.postProcess(ctx, root, rep); err != nil {
		a.printer.Summary(rep, false)
		return err
	}

	a.printer.Summary(rep, c.Extract && len(rep.Succeeded) > 0)
	return nil
}

// confirm asks before using defaults the operator did not choose and
// before creating the directory. Any declined question aborts the run.
func (a *App) confirm(root string) error {
	c := a.config

	if cwd, err := a.getwd(); err == nil && filepath.Clean(cwd) == root {
		if err := a.ask(fmt.Sprintf("No directory given. Store data in the current directory (%s)?", root)); err != nil {
			return err
		}
	}

	if c.Start == "" {
		if err := a.ask("No start date given. Download data of the last two weeks?"); err != nil {
			return err
		}
	}

	if !filex.IsDir(root) {
		if err := a.ask(fmt.Sprintf("Directory %s does not exist. Should it be created?", root)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) ask(question string) error {
	ok, err := Confirm(a.reader, question, a.out)
	switch {
	case errors.Is(err, io.EOF):
		if !a.interactive {
			return fmt.Errorf("%w: no answer on non-interactive input, use --yes to skip confirmations", common.ErrAborted)
		}
		return common.ErrAborted
	case err != nil:
		return err
	case !ok:
		return common.ErrAborted
	}
	return nil
}

func (a *App) recordHistory(ctx context.Context, rep *syncer.Report, root string, runErr error) {
	path := a.config.HistoryPath()
	if path == "" {
		return
	}

	s, err := store.Open(ctx, path)
	if err != nil {
		a.logger.Warn(ctx, "run history unavailable", "path", path, "err", err)
		return
	}
	defer s.Close()

	run, files := models.FromReport(rep, root, runErr)
	if err := s.Record(ctx, run, files); err != nil {
		a.logger.Warn(ctx, "failed to record run", "run_id", rep.RunID, "err", err)
		return
	}
	a.logger.Debug(ctx, "run recorded", "run_id", rep.RunID, "path", path)
}

func (a *App) writeMetrics(ctx context.Context, rep *syncer.Report) {
	path := a.config.MetricsFile
	if path == "" {
		return
	}

	rec := metrics.NewRecorder()
	rec.Observe(rep)
	if err := rec.WriteFile(path); err != nil {
		a.logger.Warn(ctx, "failed to write metrics", "path", path, "err", err)
	}
}

// mirrorArchives uploads archives fetched in this run. Archives that were
// already on disk are not uploaded again.
func (a *App) mirrorArchives(ctx context.Context, root string, rep *syncer.Report) {
	if !a.config.S3.Enabled() {
		return
	}

	var names []string
	for _, f := range rep.Files {
		if f.State == syncer.StateSucceeded && f.Source != syncer.SourceLocal {
			names = append(names, f.Archive)
		}
	}
	if len(names) == 0 {
		return
	}

	m, err := a.newMirror(ctx, a.config.S3, a.logger)
	if err != nil {
		a.logger.Warn(ctx, "mirror unavailable", "bucket", a.config.S3.Bucket, "err", err)
		a.printer.Warn("Mirror to s3://%s skipped: %v", a.config.S3.Bucket, err)
		return
	}

	res := m.Upload(ctx, root, names)
	a.printer.Info("%d archive(s) mirrored to s3://%s.", len(res.Uploaded), a.config.S3.Bucket)
	if len(res.Failed) > 0 {
		a.printer.Warn("%d archive(s) could not be mirrored.", len(res.Failed))
	}
}

// postProcess sorts and extracts the archives credited in this run.
func (a *App) postProcess(ctx context.Context, root string, rep *syncer.Report) error {
	c := a.config
	if len(rep.Succeeded) == 0 || !(c.Sort || c.Extract) {
		return nil
	}

	var paths []string
	if c.Sort {
		sorted, err := shard.Sort(root, rep.Succeeded)
		if err != nil {
			return fmt.Errorf("sort archives: %w", err)
		}
		paths = sorted
		a.printer.Pass("%d archive(s) sorted into folders.", len(paths))
	} else {
		for _, name := range rep.Succeeded {
			p, ok := shard.Locate(root, name)
			if !ok {
				a.logger.Warn(ctx, "retrieved archive not found on disk", "archive", name)
				continue
			}
			paths = append(paths, p)
		}
	}

	if !c.Extract {
		return nil
	}

	res, err := extract.Archives(ctx, paths)
	if err != nil {
		return fmt.Errorf("extract archives: %w", err)
	}
	files, err := extract.ListASC(res.Dirs, rep.Range, c.NoTimeCorrection)
	if err != nil {
		return err
	}
	a.printer.Pass("%d archive(s) extracted, %d already extracted, %d raster file(s) in range.",
		res.Extracted, res.Skipped, len(files))
	a.logger.Info(ctx, "archives extracted",
		"extracted", res.Extracted, "skipped", res.Skipped, "asc_files", len(files))
	return nil
}
