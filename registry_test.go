package testsize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInheritance(t *testing.T) {
	r := NewRegistry()
	r.Record("TestParent", TagLarge)
	r.Record("TestParent/child", "extra")
	r.Record("TestParent/child/grandchild", TagSmall)
	r.Record("TestParentless", TagMedium)

	assert.Equal(t, []string{"large"}, r.Lookup("TestParent").Strings())
	assert.Equal(t, []string{"extra", "large"}, r.Lookup("TestParent/child").Strings())
	assert.Equal(t, []string{"extra", "large", "small"}, r.Lookup("TestParent/child/grandchild").Strings())
	assert.Equal(t, []string{"medium"}, r.Lookup("TestParentless").Strings(),
		"a shared name prefix is not ancestry")
	assert.Equal(t, 0, r.Lookup("TestUnknown").Len())
}

func TestRegistryPackageTags(t *testing.T) {
	r := NewRegistry()
	r.Record("TestA", TagSmall)
	r.SetPackageTags("integration")

	assert.Equal(t, []string{"integration", "small"}, r.Lookup("TestA").Strings())
	assert.Equal(t, []string{"integration"}, r.Lookup("TestNeverMarked").Strings())
}

func TestRegistryApplications(t *testing.T) {
	r := NewRegistry()
	r.Record("TestA", TagMedium)
	r.Record("TestA", "extra", TagMedium)

	assert.Equal(t, []Tag{TagMedium, "extra", TagMedium}, r.Applications("TestA"),
		"every application is kept")
	assert.Equal(t, []string{"extra", "medium"}, r.Lookup("TestA").Strings())
}

func TestRegistryUnitsSorted(t *testing.T) {
	r := NewRegistry()
	r.Record("TestB", TagSmall)
	r.Record("TestA/sub", "extra")
	r.Record("TestA", TagLarge)

	units := r.Units()

	require.Len(t, units, 3)
	assert.Equal(t, "TestA", units[0].Name)
	assert.Equal(t, "TestA/sub", units[1].Name)
	assert.Equal(t, []string{"extra", "large"}, units[1].Tags)
	assert.Equal(t, []string{"extra"}, units[1].Applications)
	assert.Equal(t, "TestB", units[2].Name)

	r.Reset()
	assert.Empty(t, r.Units())
}

func TestRegistryConcurrentRecord(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(fmt.Sprintf("TestParallel/%d", i), TagSmall)
			r.Record("TestShared", TagMedium)
			_ = r.Lookup("TestShared")
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Units(), 51)
	assert.Len(t, r.Applications("TestShared"), 50)
}

type fakeRunner struct {
	code int
	run  func()
}

func (f fakeRunner) Run() int {
	if f.run != nil {
		f.run()
	}
	return f.code
}

func TestRegistryMainWritesManifest(t *testing.T) {
	t.Run("to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		t.Setenv(EnvManifest, path)

		r := NewRegistry()
		code := r.Main(fakeRunner{run: func() {
			r.SetPackageTags("integration")
			r.Record("TestA", TagLarge)
		}})

		assert.Equal(t, 0, code)
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var m Manifest
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, []string{"integration"}, m.PackageTags)
		require.Len(t, m.Units, 1)
		assert.Equal(t, "TestA", m.Units[0].Name)
		assert.Equal(t, []string{"integration", "large"}, m.Units[0].Tags)
		assert.Equal(t, []string{"large"}, m.Units[0].Applications)
	})

	t.Run("into a directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(EnvManifest, dir)

		r := NewRegistry()
		r.Record("TestA", TagSmall)
		code := r.Main(fakeRunner{code: 3})

		assert.Equal(t, 3, code, "the test exit code is preserved")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, binaryName()+".json", entries[0].Name())
	})

	t.Run("write failure fails a passing run", func(t *testing.T) {
		t.Setenv(EnvManifest, filepath.Join(t.TempDir(), "missing", "manifest.json"))

		code := NewRegistry().Main(fakeRunner{})
		assert.Equal(t, 1, code)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Setenv(EnvManifest, "")
		assert.Equal(t, 0, NewRegistry().Main(fakeRunner{}))
	})
}

func TestAncestry(t *testing.T) {
	assert.Equal(t, []string{"A"}, ancestry("A"))
	assert.Equal(t, []string{"A", "A/b", "A/b/c"}, ancestry("A/b/c"))
}

func TestReadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	r := NewRegistry()
	r.Record("TestA", TagSmall, "extra")
	require.NoError(t, r.WriteManifest(path))

	m, err := ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Units, 1)
	assert.Equal(t, "TestA", m.Units[0].Name)
	assert.Equal(t, []string{"extra", "small"}, m.Units[0].Tags)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = ReadManifest(path)
	assert.Error(t, err)

	_, err = ReadManifest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
