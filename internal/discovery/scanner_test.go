package discovery

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/testsize/internal/testutils"
)

func fixtureModule(t *testing.T) string {
	t.Helper()
	return testutils.WriteModule(t, "example.com/app", map[string]string{
		"store/store_test.go": `//go:build integration

package store

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestQuery(t *testing.T) {
	testsize.Large(t)
	t.Run("empty", func(t *testing.T) {})
}
`,
		"store/main_test.go": `package store_test

import (
	"os"
	"testing"

	"github.com/phrazzld/testsize"
)

func TestMain(m *testing.M) {
	testsize.PackageTags("db")
	os.Exit(testsize.Main(m))
}

func TestExternal(t *testing.T) {
	testsize.Small(t)
}
`,
		"parse/parse_test.go": `package parse

import (
	"testing"

	"github.com/phrazzld/testsize"
)

func TestParse(t *testing.T) {
	testsize.Label(t, "extra")
}

func TestPlain(t *testing.T) {}
`,
		"parse/broken_test.go":      "package parse\nfunc {",
		"parse/parse.go":            "package parse\n",
		"vendor/dep/dep_test.go":    "package dep\n",
		"testdata/fixture_test.go":  "package fixture\n",
		".hidden/h_test.go":         "package h\n",
		"_scratch/s_test.go":        "package s\n",
		"generated/gen/gen_test.go": "package gen\n",
		"root_test.go":              "package app\n\nimport \"testing\"\n\nfunc TestRoot(t *testing.T) {}\n",
	})
}

func TestScanDirectory(t *testing.T) {
	root := fixtureModule(t)
	logger, handler := testutils.NewTestLogger()
	s := &Scanner{
		ImportPath: markerImport,
		SkipDirs:   []string{"generated/gen"},
		Workers:    2,
		Logger:     logger,
	}

	res, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Files)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "parse/broken_test.go", res.Errors[0].File)

	type row struct {
		Package string
		File    string
		Name    string
		Tags    []string
	}
	var rows []row
	for _, u := range res.Units {
		rows = append(rows, row{u.Package, u.File, u.Name, u.Tags})
	}

	assert.Equal(t, []row{
		{"example.com/app", "root_test.go", "TestRoot", []string{}},
		{"example.com/app/parse", "parse/parse_test.go", "TestParse", []string{"extra"}},
		{"example.com/app/parse", "parse/parse_test.go", "TestPlain", []string{}},
		{"example.com/app/store", "store/main_test.go", "TestExternal", []string{"db", "small"}},
		{"example.com/app/store", "store/store_test.go", "TestQuery", []string{"db", "large"}},
		{"example.com/app/store", "store/store_test.go", "TestQuery/empty", []string{"db", "large"}},
	}, rows)

	assert.Contains(t, handler.Messages(slog.LevelInfo), "scan complete")
	assert.Contains(t, handler.Messages(slog.LevelWarn), "skipping test file")

	for _, u := range res.Units {
		if u.Name == "TestQuery" {
			assert.Equal(t, "integration", u.Constraint)
			assert.Equal(t, "store", u.Dir)
		}
	}
}

func TestScanDirectory_Idempotent(t *testing.T) {
	root := fixtureModule(t)
	s := &Scanner{ImportPath: markerImport, Workers: 8}

	first, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	second, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScanDirectory_Tagged(t *testing.T) {
	root := fixtureModule(t)
	s := &Scanner{ImportPath: markerImport}

	res, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	for _, u := range res.Tagged() {
		assert.NotEmpty(t, u.Tags, u.Name)
	}
	assert.Len(t, res.Tagged(), 4)
}

func TestScanDirectory_InvalidRoot(t *testing.T) {
	s := &Scanner{ImportPath: markerImport}

	_, err := s.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, ErrInvalidRoot))

	root := testutils.WriteTree(t, map[string]string{"file.txt": "x"})
	_, err = s.ScanDirectory(context.Background(), filepath.Join(root, "file.txt"))
	assert.True(t, errors.Is(err, ErrInvalidRoot))
}

func TestScanDirectory_Cancelled(t *testing.T) {
	root := fixtureModule(t)
	s := &Scanner{ImportPath: markerImport}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScanDirectory(ctx, root)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScanDirectory_NoModule(t *testing.T) {
	root := testutils.WriteTree(t, map[string]string{
		"pkg/a_test.go": "package pkg\n\nimport \"testing\"\n\nfunc TestA(t *testing.T) {}\n",
	})
	s := &Scanner{ImportPath: markerImport}

	res, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	// Without a go.mod the directory stands in for the import path.
	assert.Equal(t, "pkg", res.Units[0].Package)
}

func TestModuleResolver(t *testing.T) {
	root := testutils.WriteModule(t, "example.com/mod", map[string]string{
		"a/b/c.go":      "package b\n",
		"nested/go.mod": "module example.com/other\n",
		"nested/x/x.go": "package x\n",
	})
	r := newModuleResolver()

	got, err := r.importPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/mod", got)

	got, err = r.importPath(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/mod/a/b", got)

	got, err = r.importPath(filepath.Join(root, "nested", "x"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/other/x", got)
}
