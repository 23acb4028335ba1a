package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielsiegl/sqltrim/internal/filters"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in rule sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLINES\tPATTERN\tTAIL")

			for _, name := range filters.PresetNames() {
				r, err := filters.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%v\t%q\t%d\n", name, r.Positions.Sorted(), r.Pattern, r.TrailingDrop)
			}

			return tw.Flush()
		},
	}
}
