package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dump.sql>",
		Short: "Check that a dump loads into SQLite",
		Long: `Replay the dump statement by statement into a private in-memory SQLite
database. Fails with the line of the first rejected statement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := verifyFile(cmd.Context(), args[0])
			if err != nil {
				return wrapExit(err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d statements, %d tables (%s)\n",
				res.Statements, len(res.Tables), strings.Join(res.Tables, ", "))
			return err
		},
	}
}
