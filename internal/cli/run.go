package cli

import (
	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize/internal/report"
)

func (c *CLI) newRunCmd() *cobra.Command {
	var (
		format string
		sel    selectionFlags
	)

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Print the go test commands for a selection",
		Long: `Print one go test command per package that runs exactly the selected
units. Commands are grouped by the build tags the units require.

Example:
  testsize run --include small
  eval "$(testsize run --expr 'medium || small')"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.format(format, report.FormatShell)
			if err != nil {
				return err
			}
			s, err := c.selector(cmd, &sel)
			if err != nil {
				return err
			}

			res, err := c.scan(cmd.Context(), args)
			if err != nil {
				return err
			}
			runs := report.RunPatterns(res.Units, s)
			if len(runs) == 0 {
				c.logger.Warn("no units selected", "selector", s.String())
			}
			return report.WriteRuns(c.out, f, runs)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: shell, json or yaml (default shell)")
	sel.register(cmd)
	return cmd
}
