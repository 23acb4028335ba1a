package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/config"
	"github.com/danielsiegl/sqltrim/internal/logging"
	"github.com/danielsiegl/sqltrim/internal/report"
	"github.com/danielsiegl/sqltrim/internal/watch"
)

type watchOptions struct {
	file     string
	output   string
	debounce time.Duration
	verify   bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Clean the dump every time it is written into a directory",
		Long: `Watch a directory (default the current one) and run clean on the dump
file whenever it is created or rewritten. Relative output paths are
resolved against the watched directory. Stops on Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			if _, err := cfg.Rules(); err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			output := opts.output
			if !filepath.IsAbs(output) {
				output = filepath.Join(dir, output)
			}

			w := watch.DefaultOptions()
			w.Dir = dir
			w.FileName = opts.file
			w.Debounce = opts.debounce
			w.Logger = logging.FromContext(ctx)
			w.Out = cmd.ErrOrStderr()

			return watch.Run(ctx, w, func(ctx context.Context, path string) error {
				sum, err := runClean(ctx, path, output, opts.verify)
				if err != nil {
					return err
				}
				return report.Write(cmd.OutOrStdout(), cfg.ReportFormat, sum)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", defaultInput, "dump file name to watch for")
	f.StringVarP(&opts.output, "output", "o", defaultOutput, "output file")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "quiet period before cleaning")
	f.BoolVar(&opts.verify, "verify", false, "load each output into an in-memory SQLite database")
	registerRuleFlags(cmd)
	registerOutputFlags(cmd)

	return cmd
}
