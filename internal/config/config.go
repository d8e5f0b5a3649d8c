package config

import "strings"

// DefaultImportPath is the import path of the marker package that discovery
// looks for in test files.
const DefaultImportPath = "github.com/phrazzld/testsize"

// Config holds all tool configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log    LogConfig    `mapstructure:"log" validate:"required"`
	Scan   ScanConfig   `mapstructure:"scan" validate:"required"`
	Select SelectConfig `mapstructure:"select"`
	Output OutputConfig `mapstructure:"output" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ScanConfig controls static discovery.
type ScanConfig struct {
	// Root is the directory to scan. Empty means the detected project root.
	Root string `mapstructure:"root"`
	// ImportPath is the import path of the marker package.
	ImportPath string `mapstructure:"import_path" validate:"required"`
	// SkipDirs lists extra directory names that are never descended into.
	SkipDirs []string `mapstructure:"skip_dirs"`
	Workers  int      `mapstructure:"workers" validate:"gte=1,lte=64"`
}

// SelectConfig describes which tagged units belong to a run.
type SelectConfig struct {
	Include     []string `mapstructure:"include" validate:"dive,tag"`
	Exclude     []string `mapstructure:"exclude" validate:"dive,tag"`
	Expr        string   `mapstructure:"expr" validate:"omitempty,expr"`
	DefaultSize string   `mapstructure:"default_size" validate:"omitempty,oneof=small medium large"`
}

// OutputConfig contains report settings.
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"required,oneof=text json yaml markdown"`
}

// normalize splits comma separated entries, as environment variables deliver
// lists as a single string, and drops blanks.
func (s *SelectConfig) normalize() {
	s.Include = splitList(s.Include)
	s.Exclude = splitList(s.Exclude)
	s.Expr = strings.TrimSpace(s.Expr)
	s.DefaultSize = strings.TrimSpace(s.DefaultSize)
}

func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, item := range strings.Split(entry, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
