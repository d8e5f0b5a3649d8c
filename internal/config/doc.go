// Package config handles configuration loading, parsing, and validation
// from various sources (defaults, a .testsize.yaml file, environment
// variables). It keeps scan, selection, logging and output settings separate
// from the discovery logic that consumes them.
package config
