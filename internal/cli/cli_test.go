package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/testsize"
	"github.com/phrazzld/testsize/internal/cli"
	"github.com/phrazzld/testsize/internal/discovery"
	"github.com/phrazzld/testsize/internal/report"
	"github.com/phrazzld/testsize/internal/testutils"
)

const fastAndSlow = `package app

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestFast(t *testing.T) {
	testsize.Small(t)
}

func TestSlow(t *testing.T) {
	testsize.Large(t)
	t.Run("case one", func(t *testing.T) {
		testsize.Label(t, "extra")
	})
}

func TestPlain(t *testing.T) {}
`

const storeTest = `//go:build integration

package store

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestQuery(t *testing.T) {
	testsize.Large(t)
}
`

// project writes a module and makes it the detected project root.
func project(t *testing.T, extra map[string]string) string {
	t.Helper()

	files := map[string]string{
		"a_test.go":           fastAndSlow,
		"store/store_test.go": storeTest,
	}
	for k, v := range extra {
		files[k] = v
	}
	root := testutils.WriteModule(t, "example.com/app", files)

	testutils.IsolateEnv(t, map[string]string{"TESTSIZE_PROJECT_ROOT": root})
	return root
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := cli.NewWithIO(&stdout, &stderr).Execute(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func unitNames(units []discovery.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func TestList_JSONRoundTrip(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "list", "--format", "json", root)
	require.Equal(t, cli.ExitSuccess, code)

	var res discovery.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.ElementsMatch(t, []string{"TestFast", "TestSlow", "TestSlow/case_one", "TestPlain", "TestQuery"}, unitNames(res.Units))

	for _, u := range res.Units {
		switch u.Name {
		case "TestFast":
			assert.Equal(t, []string{"small"}, u.Tags)
		case "TestSlow/case_one":
			assert.Equal(t, []string{"extra", "large"}, u.Tags)
		case "TestQuery":
			assert.Equal(t, "example.com/app/store", u.Package)
			assert.Equal(t, "integration", u.Constraint)
		}
	}
}

func TestList_Selection(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "list", "--format", "json", "--tagged-only", "--include", "large", "--exclude", "extra", root)
	require.Equal(t, cli.ExitSuccess, code)

	var res discovery.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.ElementsMatch(t, []string{"TestSlow", "TestQuery"}, unitNames(res.Units))
}

func TestList_Text(t *testing.T) {
	root := project(t, nil)

	code, out, stderr := execute(t, "list", root)
	require.Equal(t, cli.ExitSuccess, code)
	assert.True(t, strings.HasPrefix(out, "PACKAGE"), out)
	assert.Contains(t, out, "TestSlow/case_one")
	assert.Contains(t, stderr, "scan complete")
}

func TestList_ConfigFile(t *testing.T) {
	project(t, map[string]string{
		".testsize.yaml": "output:\n  format: json\nselect:\n  include: [small]\n",
	})

	// The scan root defaults to the project root.
	code, out, _ := execute(t, "list")
	require.Equal(t, cli.ExitSuccess, code)

	var res discovery.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"TestFast"}, unitNames(res.Units))
}

func TestTags(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "tags", "--format", "json", root)
	require.Equal(t, cli.ExitSuccess, code)

	var usage []report.TagUsage
	require.NoError(t, json.Unmarshal([]byte(out), &usage))
	require.NotEmpty(t, usage)
	assert.Equal(t, report.TagUsage{
		Tag:   "large",
		Count: 3,
		Files: []string{"a_test.go", "store/store_test.go"},
	}, usage[0])
}

func TestAudit_Passes(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "audit", root)
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out, "# Test Size Audit Report")
	assert.Contains(t, out, "Audit passed.")
}

func TestAudit_UnresolvedMarkerFails(t *testing.T) {
	root := project(t, map[string]string{
		"dynamic_test.go": `package app

import (
	"testing"

	"github.com/phrazzld/testsize"
)

var name = "nightly"

func TestDynamic(t *testing.T) {
	testsize.Label(t, name)
}
`,
	})

	code, out, stderr := execute(t, "audit", root)
	assert.Equal(t, cli.ExitValidation, code)
	assert.Contains(t, out, "`unresolved-marker` dynamic_test.go:12")
	assert.Contains(t, out, "Audit failed.")
	assert.NotContains(t, stderr, "Error:")
}

func TestAudit_StrictWarnings(t *testing.T) {
	root := project(t, map[string]string{
		"helper_test.go": `package app

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func markLarge(t *testing.T) {
	testsize.Large(t)
}
`,
	})

	code, _, _ := execute(t, "audit", root)
	assert.Equal(t, cli.ExitSuccess, code)

	code, out, _ := execute(t, "audit", "--strict", "--format", "json", root)
	assert.Equal(t, cli.ExitValidation, code)

	var doc report.AuditDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.Failed)
	require.Len(t, doc.Issues, 1)
	assert.Equal(t, "stray-marker", string(doc.Issues[0].Code))
}

func TestRun(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "run", "--include", "small", root)
	require.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "go test -run '^TestFast$' .\n", out)

	code, out, _ = execute(t, "run", "--expr", "large && !extra", root)
	require.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "go test -run '^TestSlow$/^$' .\ngo test -tags=integration -run '^TestQuery$' ./store\n", out)
}

func TestRun_QuotesSubtestNames(t *testing.T) {
	root := project(t, map[string]string{
		"quote_test.go": `package app

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestQuote(t *testing.T) {
	t.Run("it's large", func(t *testing.T) {
		testsize.Large(t)
	})
	t.Run("plain", func(t *testing.T) {})
}
`,
	})

	code, out, _ := execute(t, "run", "--include", "large", root)
	require.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out, "go test -run '^TestQuote$/^it'\\''s_large$' .\n")
	assert.NotContains(t, out, "plain")
}

func TestAudit_LateLabel(t *testing.T) {
	root := project(t, map[string]string{
		"late_test.go": `package app

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestLate(t *testing.T) {
	testsize.Medium(t)
	testsize.Label(t, "db")
}
`,
	})

	code, _, _ := execute(t, "audit", root)
	assert.Equal(t, cli.ExitSuccess, code)

	code, out, _ := execute(t, "audit", "--strict", root)
	assert.Equal(t, cli.ExitValidation, code)
	assert.Contains(t, out, "`late-label` late_test.go:11")
}

func TestRun_JSON(t *testing.T) {
	root := project(t, nil)

	code, out, _ := execute(t, "run", "--format", "json", "--include", "extra", root)
	require.Equal(t, cli.ExitSuccess, code)

	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "^TestSlow$/^case_one$", runs[0]["pattern"])
}

func TestVersion(t *testing.T) {
	project(t, nil)

	code, out, _ := execute(t, "version", "--format", "json")
	require.Equal(t, cli.ExitSuccess, code)

	var info cli.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, cli.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	code, out, _ = execute(t, "version")
	require.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out, "Version:    "+cli.Version)
}

func TestExitCodes_ConfigErrors(t *testing.T) {
	root := project(t, nil)

	tests := []struct {
		name string
		args []string
	}{
		{"missing config file", []string{"--config", filepath.Join(root, "missing.yaml"), "list", root}},
		{"invalid log level", []string{"--log-level", "loud", "list", root}},
		{"unsupported format", []string{"list", "--format", "xml", root}},
		{"invalid expression", []string{"run", "--expr", "large &&", root}},
		{"invalid default size", []string{"list", "--default-size", "extra", root}},
		{"missing scan root", []string{"list", filepath.Join(root, "missing")}},
		{"unknown flag", []string{"list", "--bogus"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := execute(t, tc.args...)
			assert.Equal(t, cli.ExitConfig, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestGetVersionString(t *testing.T) {
	assert.True(t, strings.HasPrefix(cli.GetVersionString(), "testsize version "+cli.Version))
}

func TestManifest(t *testing.T) {
	project(t, nil)
	dir := testutils.WriteTree(t, map[string]string{
		"store.test.json": `{"binary":"store.test","package_tags":["db"],"units":[{"name":"TestQuery","tags":["db","large"]}]}`,
		"app.test.json":   `{"binary":"app.test","units":[{"name":"TestFast","tags":["small"]}]}`,
		"broken.json":     `{`,
		"notes.txt":       "ignored",
	})

	code, out, stderr := execute(t, "manifest", "--format", "json", dir)
	require.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, stderr, "skipping manifest")

	var manifests []testsize.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifests))
	require.Len(t, manifests, 2)
	assert.Equal(t, "app.test", manifests[0].Binary)
	assert.Equal(t, "store.test", manifests[1].Binary)
	assert.Equal(t, []string{"db", "large"}, manifests[1].Units[0].Tags)

	code, out, _ = execute(t, "manifest", filepath.Join(dir, "app.test.json"))
	require.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out, "TestFast")

	code, _, _ = execute(t, "manifest", filepath.Join(dir, "broken.json"))
	assert.Equal(t, cli.ExitValidation, code)
}
