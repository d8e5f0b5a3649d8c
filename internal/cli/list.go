package cli

import (
	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize/internal/report"
)

func (c *CLI) newListCmd() *cobra.Command {
	var (
		format     string
		taggedOnly bool
		sel        selectionFlags
	)

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List discovered test units and their tags",
		Long: `List every test, benchmark, fuzz target and literal subtest under dir
together with the tags its markers apply. Nothing is executed.

Example:
  testsize list --format json ./...
  testsize list --include large --exclude network`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.format(format, report.Format(c.cfg.Output.Format))
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
			res.Units = filterUnits(res.Units, s, taggedOnly)
			return report.Write(c.out, f, res)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: text, json, yaml or markdown")
	cmd.Flags().BoolVar(&taggedOnly, "tagged-only", false, "omit units without tags")
	sel.register(cmd)
	return cmd
}
