package testsize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// EnvManifest names the file, or existing directory, that Main writes the
// runtime manifest to.
const EnvManifest = "TESTSIZE_MANIFEST"

// Manifest is the runtime record of marker applications written by Main.
type Manifest struct {
	Binary      string   `json:"binary"`
	PackageTags []string `json:"package_tags,omitempty"`
	Units       []Unit   `json:"units"`
}

// Runner is satisfied by *testing.M.
type Runner interface {
	Run() int
}

var _ Runner = (*testing.M)(nil)

// Main runs the tests and, when TESTSIZE_MANIFEST is set, writes the tags
// observed during the run. Use it from TestMain:
//
//	func TestMain(m *testing.M) {
//	    os.Exit(testsize.Main(m))
//	}
func Main(m Runner) int {
	return DefaultRegistry.Main(m)
}

// Main is the registry-bound form of the package-level Main.
func (r *Registry) Main(m Runner) int {
	code := m.Run()

	path := os.Getenv(EnvManifest)
	if path == "" {
		return code
	}
	if err := r.WriteManifest(path); err != nil {
		fmt.Fprintf(os.Stderr, "testsize: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// Manifest returns a snapshot of the registry.
func (r *Registry) Manifest() Manifest {
	r.mu.RLock()
	pkgTags := r.packageTags.Strings()
	r.mu.RUnlock()

	return Manifest{
		Binary:      binaryName(),
		PackageTags: pkgTags,
		Units:       r.Units(),
	}
}

// WriteManifest writes the registry snapshot as JSON to path. When path is a
// directory the file is named after the test binary, so several packages can
// share one directory.
func (r *Registry) WriteManifest(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, binaryName()+".json")
	}

	data, err := json.MarshalIndent(r.Manifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return m, nil
}

func binaryName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, ".exe")
}
