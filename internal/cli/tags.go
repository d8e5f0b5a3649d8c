package cli

import (
	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize/internal/report"
)

func (c *CLI) newTagsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tags [dir]",
		Short: "Show how often each tag is used",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.format(format, report.Format(c.cfg.Output.Format))
			if err != nil {
				return err
			}
			res, err := c.scan(cmd.Context(), args)
			if err != nil {
				return err
			}
			return report.WriteUsage(c.out, f, report.Usage(res.Units))
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: text, json, yaml or markdown")
	return cmd
}
