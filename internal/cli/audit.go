package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize/internal/audit"
	"github.com/phrazzld/testsize/internal/report"
)

func (c *CLI) newAuditCmd() *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "audit [dir]",
		Short: "Check marker usage",
		Long: `Check that every marker resolves statically to valid tags and sits
where it applies to a test.

Errors (unresolved markers, invalid tags, unparsable files) fail the audit.
With --strict, warnings (stray or duplicate markers, several sizes on one
unit, unknown directives) fail it too. A failed audit exits with code 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.format(format, report.FormatMarkdown)
			if err != nil {
				return err
			}
			res, err := c.scan(cmd.Context(), args)
			if err != nil {
				return err
			}

			rep := audit.Run(res, audit.Options{Strict: strict})
			if err := report.WriteAudit(c.out, f, res, rep); err != nil {
				return err
			}

			c.logger.Info("audit complete",
				"errors", rep.Errors(),
				"warnings", rep.Warnings(),
				"strict", strict,
			)
			if rep.Failed() {
				return fmt.Errorf("%w: %d errors, %d warnings", errAuditFailed, rep.Errors(), rep.Warnings())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: markdown, json or yaml (default markdown)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	return cmd
}
