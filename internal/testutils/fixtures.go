package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree writes files, keyed by slash-separated relative path, under a
// fresh temporary directory and returns that directory.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "Failed to create directory for %s", rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", rel)
	}
	return root
}

// WriteModule is WriteTree with a go.mod declaring modulePath at the root.
func WriteModule(t *testing.T, modulePath string, files map[string]string) string {
	t.Helper()

	all := make(map[string]string, len(files)+1)
	for k, v := range files {
		all[k] = v
	}
	all["go.mod"] = "module " + modulePath + "\n\ngo 1.24\n"
	return WriteTree(t, all)
}
