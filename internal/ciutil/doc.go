// Package ciutil provides utilities for CI and environment-specific functionality.
//
// It detects the execution environment (CI provider or local development),
// collects CI metadata for log records, reads environment variables with
// fallbacks, and locates the project root that holds the testsize
// configuration file.
package ciutil
