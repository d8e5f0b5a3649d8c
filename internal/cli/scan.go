package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize"
	"github.com/phrazzld/testsize/internal/discovery"
	"github.com/phrazzld/testsize/internal/report"
	"github.com/phrazzld/testsize/internal/selector"
)

// selectionFlags are shared by commands that filter units.
type selectionFlags struct {
	include     []string
	exclude     []string
	expr        string
	defaultSize string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "select units carrying any of these tags")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "drop units carrying any of these tags")
	cmd.Flags().StringVar(&f.expr, "expr", "", "tag expression in go:build syntax, e.g. 'large && !network'")
	cmd.Flags().StringVar(&f.defaultSize, "default-size", "", "size assumed for units without a size tag")
}

// selector merges flags over the configured selection. A flag that was set
// replaces the configured value.
func (c *CLI) selector(cmd *cobra.Command, f *selectionFlags) (*selector.Selector, error) {
	opts := selector.Options{
		Include:     c.cfg.Select.Include,
		Exclude:     c.cfg.Select.Exclude,
		Expr:        c.cfg.Select.Expr,
		DefaultSize: c.cfg.Select.DefaultSize,
		IsSize:      func(tag string) bool { return testsize.Tag(tag).IsSize() },
	}
	if cmd.Flags().Changed("include") {
		opts.Include = f.include
	}
	if cmd.Flags().Changed("exclude") {
		opts.Exclude = f.exclude
	}
	if cmd.Flags().Changed("expr") {
		opts.Expr = f.expr
	}
	if cmd.Flags().Changed("default-size") {
		opts.DefaultSize = f.defaultSize
	}

	sel, err := selector.New(opts)
	if err != nil {
		return nil, configError(fmt.Errorf("invalid selection: %w", err))
	}
	c.logger.Debug("selection", "selector", sel.String())
	return sel, nil
}

// format resolves the --format flag, falling back to def.
func (c *CLI) format(name string, def report.Format) (report.Format, error) {
	if name == "" {
		return def, nil
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		return "", configError(err)
	}
	return f, nil
}

// scanRoot picks the directory to scan: the argument, then the configured
// root, then the project root, then the working directory.
func (c *CLI) scanRoot(args []string) string {
	switch {
	case len(args) > 0:
		return args[0]
	case c.cfg.Scan.Root != "":
		return c.cfg.Scan.Root
	case c.root != "":
		return c.root
	default:
		return "."
	}
}

func (c *CLI) scan(ctx context.Context, args []string) (*discovery.Result, error) {
	s := &discovery.Scanner{
		ImportPath: c.cfg.Scan.ImportPath,
		SkipDirs:   c.cfg.Scan.SkipDirs,
		Workers:    c.cfg.Scan.Workers,
		Logger:     c.logger,
	}
	root := c.scanRoot(args)
	res, err := s.ScanDirectory(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return res, nil
}

// filterUnits keeps the units matched by sel, and only tagged ones when
// taggedOnly is set.
func filterUnits(units []discovery.Unit, sel *selector.Selector, taggedOnly bool) []discovery.Unit {
	out := make([]discovery.Unit, 0, len(units))
	for _, u := range units {
		if taggedOnly && len(u.Tags) == 0 {
			continue
		}
		if !sel.Match(u.Tags) {
			continue
		}
		out = append(out, u)
	}
	return out
}
