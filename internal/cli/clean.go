package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/config"
	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/hash"
	"github.com/danielsiegl/sqltrim/internal/report"
	"github.com/danielsiegl/sqltrim/internal/sqlite"
)

type cleanOptions struct {
	output string
	verify bool
}

func newCleanCommand() *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean [input]",
		Short: "Write a cleaned copy of a SQL dump",
		Long: `Stream the input dump (default input.sql) into the output file
(default Dict-Sqlite.sql), dropping excluded line numbers, lines that contain
the pattern and the trailing lines, then print a summary.`,
		Example: `  sqltrim clean --preset sql-cleaner
  sqltrim clean export.sql -o clean.sql --exclude-lines 2 --tail 1
  sqltrim clean export.sql --atomic --verify --delete-source --report-format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := defaultInput
			if len(args) == 1 {
				input = args[0]
			}

			sum, err := runClean(cmd.Context(), input, opts.output, opts.verify)
			if err != nil {
				return err
			}

			cfg := config.FromContext(cmd.Context())
			return report.Write(cmd.OutOrStdout(), cfg.ReportFormat, sum)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultOutput, "output file")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "load the output into an in-memory SQLite database before finishing")
	registerRuleFlags(cmd)
	registerOutputFlags(cmd)

	return cmd
}

// runClean cleans input into output. With verify the output is replayed
// into SQLite before the source is deleted, so a dump that does not load
// is never the only copy left.
func runClean(ctx context.Context, input, output string, verify bool) (report.Summary, error) {
	cfg := config.FromContext(ctx)

	rules, err := cfg.Rules()
	if err != nil {
		return report.Summary{}, &ExitError{Code: ExitUsage, Err: err}
	}

	cleanOpts := cfg.CleanOptions()
	deleteSource := cleanOpts.DeleteSource
	if verify {
		cleanOpts.DeleteSource = false
	}

	st, err := filters.CleanFile(ctx, input, output, rules, cleanOpts)
	if err != nil {
		return report.Summary{}, wrapExit(err)
	}

	var verified *sqlite.Result
	if verify {
		if err := checkDigest(output, st.SHA256); err != nil {
			return report.Summary{}, wrapExit(err)
		}
		res, err := verifyFile(ctx, output)
		if err != nil {
			return report.Summary{}, wrapExit(fmt.Errorf("verifying %s: %w", output, err))
		}
		verified = &res

		if deleteSource {
			st.SourceDeleteErr = filters.RemoveSource(ctx, input)
		}
	}

	sum := report.New(input, output, st, deleteSource)
	sum.Verify = verified
	return sum, nil
}

// checkDigest makes sure the file about to be verified still holds the bytes
// the filter wrote.
func checkDigest(path, want string) error {
	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	got, err := hash.SumReader(f)
	if err != nil {
		return &filters.OpError{Op: "read", Path: path, Kind: filters.ErrIO, Err: err}
	}
	if got != want {
		return &filters.OpError{Op: "verify", Path: path, Kind: filters.ErrIO,
			Err: fmt.Errorf("output changed after write: sha256 %s, want %s", got, want)}
	}
	return nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &filters.OpError{Op: "open", Path: path, Kind: filters.ErrNotFound, Err: err}
		}
		return nil, &filters.OpError{Op: "open", Path: path, Kind: filters.ErrIO, Err: err}
	}
	return f, nil
}

func verifyFile(ctx context.Context, path string) (sqlite.Result, error) {
	f, err := openInput(path)
	if err != nil {
		return sqlite.Result{}, err
	}
	defer f.Close()

	v := &sqlite.Verifier{}
	return v.Verify(ctx, f)
}
