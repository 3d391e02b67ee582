package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/raddo/internal/buildinfo"
	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/logging"
)

// Exit codes of the raddo binary.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// ExitCode maps a pipeline error to the process exit code. A declined
// confirmation is not a failure.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, common.ErrAborted):
		return ExitOK
	case errors.Is(err, common.ErrInvalidConfig):
		return ExitConfigError
	default:
		return ExitFailure
	}
}

// streams are the process's standard streams.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the raddo command tree. cfg already holds defaults
// and the JSON file; flags are bound on top of it.
func NewRootCommand(cfg *config.Config, in io.Reader, out, errOut io.Writer) *cobra.Command {
	s := streams{in: in, out: out, errOut: errOut}

	var showVersion bool

	root := &cobra.Command{
		Use:   "raddo",
		Short: "Keep a local RADOLAN precipitation archive up to date",
		Long: `raddo downloads the hourly RADOLAN precipitation archives of the DWD
open data server that are missing from a local directory.

Days no longer published individually are fetched from the monthly
historical archives. Files already present are remembered in
.raddo_local_files.txt inside the directory, so later runs only ask the
server for what is new.

Example usage:
  raddo -d ./radolan -s 2024-01-01 -e 2024-01-31
  raddo -d ./radolan -s "3 weeks ago" --complete --yes`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected argument %q", common.ErrInvalidConfig, args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				buildinfo.PrintBuildData(s.out)
				return nil
			}
			return withLogger(cmd.Context(), cfg, s.errOut, func(ctx context.Context, logger logging.Logger) error {
				return NewApp(cfg, s.in, s.out, logger).Run(ctx)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	config.BindFlags(root.PersistentFlags(), cfg)
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	})

	root.AddCommand(newHistoryCommand(cfg, s))
	return root
}

// Execute runs raddo with args (without the program name) and returns the
// process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return ExitCode(err)
	}

	root := NewRootCommand(cfg, in, out, errOut)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAborted):
		fmt.Fprintln(out, "Exiting.")
		if err != common.ErrAborted {
			fmt.Fprintln(errOut, err)
		}
	default:
		fmt.Fprintln(errOut, "Error:", err)
	}
	return ExitCode(err)
}

// withLogger builds the configured logger for the duration of fn.
func withLogger(ctx context.Context, cfg *config.Config, errOut io.Writer, fn func(context.Context, logging.Logger) error) error {
	logger, closer, err := logging.New(errOut, cfg.LogOptions())
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	defer closer.Close()
	return fn(ctx, logger)
}
