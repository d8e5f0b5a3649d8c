// Package testutils provides common utilities for testing across the module.
package testutils

import (
	"os"
	"strings"
	"testing"
)

// envPrefix matches every variable the module reads from the environment.
const envPrefix = "TESTSIZE_"

// IsolateEnv blanks every TESTSIZE_ variable of the host environment, then
// sets overrides. All values are restored when the test ends. An empty value
// behaves as unset for every reader in this module.
//
// Like t.Setenv it cannot be used in parallel tests.
//
//	func TestSomething(t *testing.T) {
//	    testutils.IsolateEnv(t, map[string]string{"TESTSIZE_INCLUDE": "large"})
//	    ...
//	}
func IsolateEnv(t *testing.T, overrides map[string]string) {
	t.Helper()

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) {
			t.Setenv(name, "")
		}
	}
	for name, value := range overrides {
		t.Setenv(name, value)
	}
}
