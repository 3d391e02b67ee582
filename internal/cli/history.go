package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/models"
	"github.com/dmitrijs2005/raddo/internal/store"
	"github.com/dmitrijs2005/raddo/internal/syncer"
	"github.com/dmitrijs2005/raddo/internal/ui"
)

const defaultHistoryLimit = 10

func newHistoryCommand(cfg *config.Config, s streams) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past synchronization runs",
		Long: `Show the runs recorded in the history database of the directory.

Example usage:
  raddo history                  # the last 10 runs
  raddo history -n 0             # every run
  raddo history --run <id>       # per-file outcomes of one run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.HistoryPath()
			if path == "" {
				return fmt.Errorf("%w: run history is disabled", common.ErrInvalidConfig)
			}
			ctx := cmd.Context()
			st, err := store.Open(ctx, path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer st.Close()

			if runID != "" {
				return showRun(ctx, st, runID, s.out)
			}
			return listRuns(ctx, st, limit, s.out)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "show the files of one run")
	return cmd
}

func listRuns(ctx context.Context, st *store.Store, limit int, w io.Writer) error {
	runs, err := st.Runs.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-19s  %-23s  %8s  %7s  %9s  %7s  %6s  %9s\n",
		"RUN", "STARTED", "RANGE", "EXPECTED", "MISSING", "RETRIEVED", "COVERED", "FAILED", "BYTES")
	for _, r := range runs {
		failed := fmt.Sprintf("%6d", r.Failed)
		if r.Failed > 0 {
			failed = ui.RenderWarn(failed)
		}
		line := fmt.Sprintf("%-36s  %-19s  %-23s  %8d  %7d  %9d  %7d  %s  %9s",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.RangeStart.Format(time.DateOnly)+" - "+r.RangeEnd.Format(time.DateOnly),
			r.Expected, r.Missing, r.Succeeded, r.Covered, failed,
			humanize.Bytes(uint64(r.Bytes)))
		if r.Error != "" {
			line += "  " + ui.RenderFail(r.Error)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, id string, w io.Writer) error {
	run, err := st.Runs.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: unknown run %s", common.ErrInvalidConfig, id)
	}
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	files, err := st.Runs.Files(ctx, id)
	if err != nil {
		return fmt.Errorf("list run files: %w", err)
	}

	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  directory: %s\n", run.Root)
	fmt.Fprintf(w, "  range:     %s - %s\n", run.RangeStart.Format(time.DateOnly), run.RangeEnd.Format(time.DateOnly))
	fmt.Fprintf(w, "  started:   %s (%s)\n", run.StartedAt.Local().Format(time.DateTime),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  known:     from %s\n", run.KnownFrom)
	if run.LegacyData {
		fmt.Fprintln(w, "  "+ui.RenderWarn("contains monthly archive data"))
	}
	if run.Error != "" {
		fmt.Fprintln(w, "  error:     "+ui.RenderFail(run.Error))
	}

	if len(files) == 0 {
		fmt.Fprintln(w, "\nNo files were missing.")
		return nil
	}
	fmt.Fprintln(w)
	for _, f := range files {
		fmt.Fprintln(w, formatRunFile(f))
	}
	return nil
}

func formatRunFile(f *models.RunFile) string {
	state := f.State
	switch f.State {
	case string(syncer.StateSucceeded):
		state = ui.RenderPass(state)
	case string(syncer.StateFailed):
		state = ui.RenderFail(state)
	}
	line := fmt.Sprintf("  %-20s  %s", f.Name, state)
	if f.Archive != "" && f.Archive != f.Name {
		line += " via " + f.Archive
	}
	if f.Source != "" {
		line += " (" + f.Source + ")"
	}
	if f.Attempts > 0 {
		line += fmt.Sprintf(", %d failed attempt(s)", f.Attempts)
	}
	if f.Error != "" {
		line += ": " + f.Error
	}
	return line
}
