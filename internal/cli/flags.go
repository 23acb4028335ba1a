package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/config"
	"github.com/danielsiegl/sqltrim/internal/filters"
	"github.com/danielsiegl/sqltrim/internal/sqlite"
)

// Default file names used by the dump export this tool was built around.
const (
	defaultInput  = "input.sql"
	defaultOutput = "Dict-Sqlite.sql"
)

// registerRuleFlags adds the line selection flags. They are read through
// config.Load so the environment and config file can supply them too.
func registerRuleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(config.KeyPreset, "", "named rule set: "+strings.Join(filters.PresetNames(), ", "))
	f.IntSlice(config.KeyExcludeLines, nil, "1-based line numbers to always drop")
	f.String(config.KeyPattern, filters.DefaultPattern, "drop lines containing this text (ASCII case-insensitive, empty matches every line)")
	f.Bool(config.KeyNoPattern, false, "do not drop lines by content")
	f.Int(config.KeyTail, 0, "number of trailing surviving lines to drop")
}

// registerOutputFlags adds the flags controlling how the output is written.
func registerOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool(config.KeyAtomic, false, "write to a temporary file and rename on success")
	f.Bool(config.KeyDeleteSource, false, "delete the input after a successful run")
	f.String(config.KeyReportFormat, config.ReportText, "report format: text, json, yaml, toml")
}

// exitCodeFor maps domain errors to process exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, filters.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, sqlite.ErrVerify):
		return ExitVerify
	case errors.Is(err, filters.ErrSamePath),
		errors.Is(err, filters.ErrInvalidPosition),
		errors.Is(err, filters.ErrInvalidTrailingDrop),
		errors.Is(err, filters.ErrUnknownPreset):
		return ExitUsage
	case errors.Is(err, filters.ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

func wrapExit(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: exitCodeFor(err), Err: err}
}
