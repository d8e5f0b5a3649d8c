// Package logger provides structured logging for the testsize tool.
//
// It utilizes Go's standard library log/slog package to implement structured
// JSON or text logging with configurable log levels. Inside CI the JSON
// output is routed through CIHandler, which stamps every record with the CI
// provider and run metadata.
package logger
