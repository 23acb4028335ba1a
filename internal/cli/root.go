// Package cli implements the cobra command tree for sqltrim.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/config"
	"github.com/danielsiegl/sqltrim/internal/logging"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitIO       = 3
	ExitNotFound = 4
	ExitVerify   = 5
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd, closeLog := newRootCommand()
	err := cmd.Execute()
	closeLog()

	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, func()) {
	var cfgFile string
	closeLog := func() {}

	cmd := &cobra.Command{
		Use:   "sqltrim",
		Short: "Strip header, unistr() and footer lines from SQL dumps",
		Long: `sqltrim streams a SQL dump and writes a cleaned copy without the
configured header lines, without lines calling unistr() (matched ignoring
ASCII case), and without a fixed number of trailing lines.

It filters lines, it does not parse SQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			logger, cleanup := logging.Setup(cfg.Logging(), cmd.ErrOrStderr())
			closeLog = cleanup
			slog.SetDefault(logger)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("configFile", cfg.ConfigFile),
				slog.String("preset", cfg.Preset),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .sqltrim.yaml)")
	pf.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "text", "log format: text, json")
	pf.String(config.KeyLogDir, "", "write JSON logs to a file in this directory")
	pf.BoolP(config.KeyQuiet, "q", false, "only log errors")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	cmd.AddCommand(
		newCleanCommand(),
		newPreviewCommand(),
		newVerifyCommand(),
		newWatchCommand(),
		newPresetsCommand(),
		newVersionCommand(),
	)

	return cmd, func() { closeLog() }
}
