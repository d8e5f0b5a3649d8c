// Package report renders discovery results, tag usage, audit reports and
// go test run commands as text tables, JSON, YAML or Markdown.
package report
