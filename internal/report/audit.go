package report

import (
	"io"

	"github.com/phrazzld/testsize/internal/audit"
	"github.com/phrazzld/testsize/internal/discovery"
)

// AuditDocument is the machine readable form of an audit.
type AuditDocument struct {
	Root     string        `json:"root" yaml:"root"`
	Files    int           `json:"files" yaml:"files"`
	Units    int           `json:"units" yaml:"units"`
	Tagged   int           `json:"tagged" yaml:"tagged"`
	Errors   int           `json:"errors" yaml:"errors"`
	Warnings int           `json:"warnings" yaml:"warnings"`
	Failed   bool          `json:"failed" yaml:"failed"`
	Usage    []TagUsage    `json:"usage" yaml:"usage"`
	Issues   []audit.Issue `json:"issues" yaml:"issues"`
}

// NewAuditDocument summarizes an audit of res.
func NewAuditDocument(res *discovery.Result, rep *audit.Report) AuditDocument {
	issues := rep.Issues
	if issues == nil {
		issues = []audit.Issue{}
	}
	return AuditDocument{
		Root:     res.Root,
		Files:    res.Files,
		Units:    len(res.Units),
		Tagged:   len(res.Tagged()),
		Errors:   rep.Errors(),
		Warnings: rep.Warnings(),
		Failed:   rep.Failed(),
		Usage:    Usage(res.Units),
		Issues:   issues,
	}
}

// WriteAudit renders an audit report.
func WriteAudit(w io.Writer, format Format, res *discovery.Result, rep *audit.Report) error {
	doc := NewAuditDocument(res, rep)

	switch format {
	case FormatMarkdown, FormatText:
		return writeAuditMarkdown(w, doc, rep.Strict)
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	default:
		return unsupported(format, "audit")
	}
}

func writeAuditMarkdown(w io.Writer, doc AuditDocument, strict bool) error {
	ew := &errWriter{w: w}

	ew.printf("# Test Size Audit Report\n\n")
	ew.printf("## Summary\n")
	ew.printf("- Test files scanned: %d\n", doc.Files)
	ew.printf("- Test units: %d\n", doc.Units)
	ew.printf("- Tagged units: %d\n", doc.Tagged)
	ew.printf("- Errors: %d\n", doc.Errors)
	ew.printf("- Warnings: %d\n", doc.Warnings)
	if strict {
		ew.printf("- Mode: strict\n")
	}
	ew.printf("\n")

	writeUsageMarkdown(ew, doc.Usage)

	if len(doc.Issues) > 0 {
		ew.printf("## Issues\n\n")
		for _, is := range doc.Issues {
			ew.printf("- **%s** `%s` %s", is.Severity, is.Code, location(is.File, is.Line))
			if is.Unit != "" {
				ew.printf(" (%s)", is.Unit)
			}
			ew.printf(": %s\n", is.Message)
		}
		ew.printf("\n")
	}

	if doc.Failed {
		ew.printf("Audit failed.\n")
	} else {
		ew.printf("Audit passed.\n")
	}
	return ew.err
}
