// Package cli provides the testsize command-line interface.
// It discovers tagged test units without running them and turns a tag
// selection into go test invocations.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize/internal/ciutil"
	"github.com/phrazzld/testsize/internal/config"
	"github.com/phrazzld/testsize/internal/discovery"
	"github.com/phrazzld/testsize/internal/platform/logger"
	"github.com/phrazzld/testsize/internal/report"
	"github.com/phrazzld/testsize/internal/selector"
)

// Exit codes returned by Execute.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitConfig     = 2
	ExitInternal   = 4
)

// errAuditFailed is returned by the audit command when the report fails.
var errAuditFailed = errors.New("audit failed")

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: ExitConfig, err: err}
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config
	logger  *slog.Logger
	root    string

	out    io.Writer
	errOut io.Writer

	// Global flags
	configPath string
	logLevel   string
	logFormat  string
}

// New creates a CLI writing to the process's standard streams.
func New() *CLI {
	return NewWithIO(os.Stdout, os.Stderr)
}

// NewWithIO creates a CLI writing command output to out and logs and errors
// to errOut.
func NewWithIO(out, errOut io.Writer) *CLI {
	c := &CLI{out: out, errOut: errOut}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI with args and returns the process exit code.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	c.rootCmd.SetArgs(args)
	err := c.rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	code := exitCode(err)
	if !errors.Is(err, errAuditFailed) {
		c.errorf("Error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, errAuditFailed):
		return ExitValidation
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrReadConfig),
		errors.Is(err, discovery.ErrInvalidRoot),
		errors.Is(err, report.ErrUnsupportedFormat),
		errors.Is(err, selector.ErrInvalidExpression),
		errors.Is(err, selector.ErrInvalidTag),
		errors.Is(err, logger.ErrInvalidLevel),
		errors.Is(err, logger.ErrInvalidFormat):
		return ExitConfig
	default:
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testsize",
		Short: "Discover and select tests by size and tag",
		Long: `testsize finds tests marked with testsize.Small, Medium, Large, Label
and //testsize:tag directives without running them.

It lists tagged units, audits marker usage, and prints the go test
commands that run a tag selection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError(err)
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: .testsize.yaml in the project root)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: text or json")

	cmd.AddCommand(c.newListCmd())
	cmd.AddCommand(c.newTagsCmd())
	cmd.AddCommand(c.newAuditCmd())
	cmd.AddCommand(c.newRunCmd())
	cmd.AddCommand(c.newManifestCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	// A missing project root only narrows the config search.
	root, err := ciutil.FindProjectRoot(nil)
	if err != nil {
		root = ""
	}
	c.root = root

	var searchDirs []string
	if root != "" {
		searchDirs = append(searchDirs, root)
	}
	cfg, err := config.Load(c.configPath, searchDirs...)
	if err != nil {
		return configError(err)
	}

	// Override with flags
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return configError(err)
	}

	log, err := logger.New(c.errOut, cfg.Log)
	if err != nil {
		return configError(err)
	}
	c.cfg = cfg
	c.logger = log
	log.Debug("configuration loaded", "project_root", root, "config", c.configPath)
	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *CLI) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *CLI) errorf(format string, args ...any) {
	fmt.Fprintf(c.errOut, format, args...)
}
