package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/config"
	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/logging"
)

func newPreviewCommand() *cobra.Command {
	var contextLines int

	cmd := &cobra.Command{
		Use:   "preview [input]",
		Short: "Show which lines clean would drop as a unified diff",
		Long: `Run the filter in memory and print a unified diff between the input
and the cleaned result. Nothing is written to disk. The whole input is held
in memory, so use it on samples rather than multi-gigabyte dumps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := defaultInput
			if len(args) == 1 {
				input = args[0]
			}

			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			rules, err := cfg.Rules()
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			data, err := os.ReadFile(input)
			if err != nil {
				kind := filters.ErrIO
				if errors.Is(err, fs.ErrNotExist) {
					kind = filters.ErrNotFound
				}
				return wrapExit(&filters.OpError{Op: "read", Path: input, Kind: kind, Err: err})
			}

			var cleaned bytes.Buffer
			st, err := filters.Filter(ctx, bytes.NewReader(data), &cleaned, rules)
			if err != nil {
				return wrapExit(err)
			}

			diff := difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(data)),
				B:        difflib.SplitLines(cleaned.String()),
				FromFile: input,
				ToFile:   input + " (cleaned)",
				Context:  contextLines,
			}
			if err := difflib.WriteUnifiedDiff(cmd.OutOrStdout(), diff); err != nil {
				return fmt.Errorf("writing diff: %w", err)
			}

			logging.FromContext(ctx).Info("preview completed",
				"read", st.Read, "kept", st.Kept, "dropped", st.Dropped())
			return nil
		},
	}

	cmd.Flags().IntVarP(&contextLines, "context", "U", 1, "lines of context around each change")
	registerRuleFlags(cmd)

	return cmd
}
