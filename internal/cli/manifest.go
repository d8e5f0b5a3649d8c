package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/phrazzld/testsize"
	"github.com/phrazzld/testsize/internal/report"
)

var errNoManifests = errors.New("no readable manifests")

func (c *CLI) newManifestCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "manifest <file|dir>...",
		Short: "Merge runtime manifests written by test binaries",
		Long: `Merge the JSON manifests that testsize.Main writes when
TESTSIZE_MANIFEST is set. Directories contribute every *.json file they
hold. Unreadable files are reported and skipped.

Example:
  TESTSIZE_MANIFEST=$PWD/manifests go test ./...
  testsize manifest --format json manifests`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.format(format, report.Format(c.cfg.Output.Format))
			if err != nil {
				return err
			}
			manifests, err := c.readManifests(args)
			if err != nil {
				return err
			}
			return report.WriteManifests(c.out, f, manifests)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: text, json or yaml")
	return cmd
}

func (c *CLI) readManifests(args []string) ([]testsize.Manifest, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			c.logger.Warn("skipping manifest", "path", arg, "error", err)
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	var manifests []testsize.Manifest
	for _, file := range files {
		m, err := testsize.ReadManifest(file)
		if err != nil {
			c.logger.Warn("skipping manifest", "path", file, "error", err)
			continue
		}
		manifests = append(manifests, m)
	}
	if len(manifests) == 0 {
		return nil, &exitError{code: ExitValidation, err: errNoManifests}
	}

	sort.SliceStable(manifests, func(i, j int) bool { return manifests[i].Binary < manifests[j].Binary })
	c.logger.Debug("manifests merged", "files", len(files), "manifests", len(manifests))
	return manifests, nil
}
