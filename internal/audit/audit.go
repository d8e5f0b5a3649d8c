package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/testsize"
	"github.com/phrazzld/testsize/internal/discovery"
)

// Severity grades an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code identifies the check that produced an issue.
type Code string

const (
	CodeUnresolvedMarker Code = "unresolved-marker"
	CodeInvalidTag       Code = "invalid-tag"
	CodeStrayMarker      Code = "stray-marker"
	CodeDuplicateMarker  Code = "duplicate-marker"
	CodeMultipleSizes    Code = "multiple-sizes"
	CodeLateLabel        Code = "late-label"
	CodeUnknownDirective Code = "unknown-directive"
	CodeParseError       Code = "parse-error"
)

// Issue is one audit finding.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     Code     `json:"code" yaml:"code"`
	Unit     string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Options configures Run.
type Options struct {
	// Strict makes warnings fail the audit.
	Strict bool
}

// Report is the outcome of an audit.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
	Strict bool    `json:"strict" yaml:"strict"`
}

// Errors returns the number of error issues.
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings returns the number of warning issues.
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// Failed reports whether the audit should fail a build.
func (r *Report) Failed() bool {
	return r.Errors() > 0 || (r.Strict && r.Warnings() > 0)
}

func (r *Report) count(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

// Run audits a discovery result.
func Run(res *discovery.Result, opts Options) *Report {
	a := &auditor{seen: make(map[string]bool)}

	a.parseErrors(res.Errors)
	a.findings(res.Findings)
	a.packageMarkers(res.PackageMarkers)

	byName := make(map[string]discovery.Unit, len(res.Units))
	for _, u := range res.Units {
		byName[u.Package+"\x00"+u.Name] = u
	}
	for _, u := range res.Units {
		a.invalidTags(u)
		a.duplicates(u)
		a.lateLabels(u)
		parent, hasParent := byName[u.Package+"\x00"+u.Parent()]
		a.multipleSizes(u, parent, hasParent && u.IsSubtest())
	}

	sortIssues(a.issues)
	return &Report{Issues: a.issues, Strict: opts.Strict}
}

type auditor struct {
	issues []Issue
	seen   map[string]bool
}

// add records an issue once per code and position.
func (a *auditor) add(is Issue, key string) {
	k := fmt.Sprintf("%s\x00%s\x00%d\x00%s", is.Code, is.File, is.Line, key)
	if a.seen[k] {
		return
	}
	a.seen[k] = true
	a.issues = append(a.issues, is)
}

func (a *auditor) parseErrors(errs []discovery.FileError) {
	for _, fe := range errs {
		a.add(Issue{
			Severity: SeverityError,
			Code:     CodeParseError,
			File:     fe.File,
			Message:  fe.Err,
		}, "")
	}
}

func (a *auditor) findings(findings []discovery.Finding) {
	for _, f := range findings {
		is := Issue{Unit: f.Unit, File: f.File, Line: f.Line, Message: f.Detail}
		switch f.Kind {
		case discovery.FindingUnresolved:
			is.Severity, is.Code = SeverityError, CodeUnresolvedMarker
		case discovery.FindingStray:
			is.Severity, is.Code = SeverityWarning, CodeStrayMarker
		case discovery.FindingUnknownDirective:
			is.Severity, is.Code = SeverityWarning, CodeUnknownDirective
		default:
			continue
		}
		a.add(is, f.Detail)
	}
}

func (a *auditor) packageMarkers(markers []discovery.Marker) {
	for _, m := range markers {
		a.checkTag(m, "")
	}
}

func (a *auditor) invalidTags(u discovery.Unit) {
	for _, m := range u.Markers {
		a.checkTag(m, u.Name)
	}
}

// checkTag reports an invalid tag once per application, even when a file
// directive is repeated on every unit of its file.
func (a *auditor) checkTag(m discovery.Marker, unit string) {
	if _, err := testsize.ParseTag(m.Tag); err == nil {
		return
	}
	if m.Source == discovery.SourceFileDirective || m.Source == discovery.SourcePackage {
		unit = ""
	}
	a.add(Issue{
		Severity: SeverityError,
		Code:     CodeInvalidTag,
		Unit:     unit,
		File:     m.File,
		Line:     m.Line,
		Message:  fmt.Sprintf("tag %q is not a valid name", m.Tag),
	}, m.Tag)
}

func (a *auditor) duplicates(u discovery.Unit) {
	first := make(map[string]discovery.Marker)
	for _, m := range u.Markers {
		prev, ok := first[m.Tag]
		if !ok {
			first[m.Tag] = m
			continue
		}
		a.add(Issue{
			Severity: SeverityWarning,
			Code:     CodeDuplicateMarker,
			Unit:     u.Name,
			File:     m.File,
			Line:     m.Line,
			Message:  fmt.Sprintf("tag %q already applied at %s:%d", m.Tag, prev.File, prev.Line),
		}, u.Name+"\x00"+m.Tag)
	}
}

// lateLabels reports labels applied by a marker call after the unit's size
// marker. At run time the size marker decides inclusion, so such labels can
// exclude the unit but never select it.
func (a *auditor) lateLabels(u discovery.Unit) {
	sizeLine := 0
	for _, m := range u.Markers {
		if m.Source != discovery.SourceCall {
			continue
		}
		if testsize.Tag(m.Tag).IsSize() {
			if sizeLine == 0 {
				sizeLine = m.Line
			}
			continue
		}
		if sizeLine == 0 || m.Line <= sizeLine {
			continue
		}
		a.add(Issue{
			Severity: SeverityWarning,
			Code:     CodeLateLabel,
			Unit:     u.Name,
			File:     m.File,
			Line:     m.Line,
			Message:  fmt.Sprintf("label %q follows the size marker at line %d; pass it to the size marker so run-time selection sees it", m.Tag, sizeLine),
		}, u.Name+"\x00"+m.Tag)
	}
}

// multipleSizes reports a unit claiming more than one size. Subtests that
// only repeat their parent's conflict are not reported again.
func (a *auditor) multipleSizes(u, parent discovery.Unit, hasParent bool) {
	sizes := u.TagSet().Sizes()
	if len(sizes) < 2 {
		return
	}
	if hasParent && len(parent.TagSet().Sizes()) == len(sizes) {
		return
	}

	names := make([]string, len(sizes))
	for i, s := range sizes {
		names[i] = string(s)
	}
	a.add(Issue{
		Severity: SeverityWarning,
		Code:     CodeMultipleSizes,
		Unit:     u.Name,
		File:     u.File,
		Line:     u.Line,
		Message:  fmt.Sprintf("unit has several sizes: %s", strings.Join(names, ", ")),
	}, u.Name)
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Unit < b.Unit
	})
}
