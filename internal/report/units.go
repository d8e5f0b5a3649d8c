package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/testsize/internal/discovery"
)

// maxFileList bounds the file column of Markdown usage tables.
const maxFileList = 50

// Write renders a discovery result.
func Write(w io.Writer, format Format, res *discovery.Result) error {
	switch format {
	case FormatText:
		return writeUnitsText(w, res.Units)
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	case FormatMarkdown:
		return writeResultMarkdown(w, res)
	default:
		return unsupported(format, "units")
	}
}

// WriteUsage renders a tag usage table.
func WriteUsage(w io.Writer, format Format, usage []TagUsage) error {
	switch format {
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		ew := &errWriter{w: tw}
		ew.printf("TAG\tUNITS\tFILES\n")
		for _, tu := range usage {
			ew.printf("%s\t%d\t%s\n", tu.Tag, tu.Count, strings.Join(tu.Files, ","))
		}
		if ew.err != nil {
			return ew.err
		}
		return tw.Flush()
	case FormatJSON:
		return writeJSON(w, usage)
	case FormatYAML:
		return writeYAML(w, usage)
	case FormatMarkdown:
		ew := &errWriter{w: w}
		writeUsageMarkdown(ew, usage)
		return ew.err
	default:
		return unsupported(format, "tag usage")
	}
}

func writeUnitsText(w io.Writer, units []discovery.Unit) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.printf("PACKAGE\tTEST\tTAGS\tFILE\n")
	for _, u := range units {
		ew.printf("%s\t%s\t%s\t%s:%d\n", u.Package, u.Name, joinTags(u.Tags), u.File, u.Line)
	}
	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

func writeResultMarkdown(w io.Writer, res *discovery.Result) error {
	ew := &errWriter{w: w}

	ew.printf("# Test Size Report\n\n")
	ew.printf("## Summary\n")
	ew.printf("- Test files scanned: %d\n", res.Files)
	ew.printf("- Test units: %d\n", len(res.Units))
	ew.printf("- Tagged units: %d\n", len(res.Tagged()))
	if len(res.Errors) > 0 {
		ew.printf("- Files with errors: %d\n", len(res.Errors))
	}
	ew.printf("\n")

	writeUsageMarkdown(ew, Usage(res.Units))

	ew.printf("## Units\n\n")
	ew.printf("| Package | Test | Tags | File |\n")
	ew.printf("|---------|------|------|------|\n")
	for _, u := range res.Units {
		ew.printf("| %s | %s | %s | %s:%d |\n", u.Package, mdEscape(u.Name), joinTags(u.Tags), u.File, u.Line)
	}
	ew.printf("\n")

	return ew.err
}

func writeUsageMarkdown(ew *errWriter, usage []TagUsage) {
	ew.printf("## Tag Usage\n\n")
	if len(usage) == 0 {
		ew.printf("No tagged units.\n\n")
		return
	}
	ew.printf("| Tag | Count | Files |\n")
	ew.printf("|-----|-------|-------|\n")
	for _, tu := range usage {
		fileList := strings.Join(tu.Files, ", ")
		if len(fileList) > maxFileList {
			fileList = fileList[:maxFileList-3] + "..."
		}
		ew.printf("| %s | %d | %s |\n", tu.Tag, tu.Count, fileList)
	}
	ew.printf("\n")
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}

// mdEscape keeps subtest names from breaking table cells.
func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// location formats a file position, leaving out unknown lines.
func location(file string, line int) string {
	if line <= 0 {
		return file
	}
	return fmt.Sprintf("%s:%d", file, line)
}
