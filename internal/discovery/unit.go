package discovery

import (
	"sort"

	"github.com/phrazzld/testsize"
)

// Kind is the kind of test function a unit belongs to.
type Kind string

const (
	KindTest      Kind = "test"
	KindBenchmark Kind = "benchmark"
	KindFuzz      Kind = "fuzz"
)

// Source says where a marker application was read from.
type Source string

const (
	SourceCall          Source = "call"
	SourceDirective     Source = "directive"
	SourceFileDirective Source = "file-directive"
	SourcePackage       Source = "package"
)

// Marker is one marker application.
type Marker struct {
	Tag    string `json:"tag" yaml:"tag"`
	Source Source `json:"source" yaml:"source"`
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
}

// Unit is a test function or a subtest with its discovered tags.
type Unit struct {
	// Package is the import path of the package the test belongs to.
	Package string `json:"package" yaml:"package"`
	// Dir is the package directory relative to the scan root.
	Dir string `json:"dir" yaml:"dir"`
	// File is the file path relative to the scan root, slash separated.
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	// Name is the name go test reports, e.g. TestParse/empty_input.
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
	// Tags is the effective tag set in lexical order.
	Tags []string `json:"tags" yaml:"tags"`
	// Markers lists the applications made on this unit itself. Tags
	// inherited from a parent test are not repeated here.
	Markers []Marker `json:"markers,omitempty" yaml:"markers,omitempty"`
	// Constraint is the file's build constraint, if any.
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// IsSubtest reports whether u was declared through t.Run.
func (u Unit) IsSubtest() bool {
	return u.Parent() != ""
}

// Parent returns the name of the enclosing test, or "" for a top-level test.
func (u Unit) Parent() string {
	for i := len(u.Name) - 1; i >= 0; i-- {
		if u.Name[i] == '/' {
			return u.Name[:i]
		}
	}
	return ""
}

// TopLevel returns the name of the test function the unit belongs to.
func (u Unit) TopLevel() string {
	for i := 0; i < len(u.Name); i++ {
		if u.Name[i] == '/' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// TagSet returns the effective tags as a set.
func (u Unit) TagSet() testsize.Set {
	var s testsize.Set
	for _, t := range u.Tags {
		s.Add(testsize.Tag(t))
	}
	return s
}

// FindingKind classifies a discovery finding.
type FindingKind string

const (
	// FindingUnresolved is a marker call whose arguments cannot be read
	// statically.
	FindingUnresolved FindingKind = "unresolved-marker"
	// FindingStray is a marker call outside any test function.
	FindingStray FindingKind = "stray-marker"
	// FindingUnknownDirective is a //testsize: comment with an unknown verb.
	FindingUnknownDirective FindingKind = "unknown-directive"
)

// Finding is something discovery could not turn into a marker.
type Finding struct {
	Kind   FindingKind `json:"kind" yaml:"kind"`
	File   string      `json:"file" yaml:"file"`
	Line   int         `json:"line" yaml:"line"`
	Unit   string      `json:"unit,omitempty" yaml:"unit,omitempty"`
	Detail string      `json:"detail" yaml:"detail"`
}

// FileError records a file that could not be read or parsed.
type FileError struct {
	File string `json:"file" yaml:"file"`
	Err  string `json:"error" yaml:"error"`
}

// Result is the outcome of a scan.
type Result struct {
	Root  string `json:"root" yaml:"root"`
	Files int    `json:"files" yaml:"files"`
	Units []Unit `json:"units" yaml:"units"`
	// PackageMarkers are the PackageTags applications found in the tree.
	PackageMarkers []Marker    `json:"package_markers,omitempty" yaml:"package_markers,omitempty"`
	Findings       []Finding   `json:"findings,omitempty" yaml:"findings,omitempty"`
	Errors         []FileError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Tagged returns the units that carry at least one tag.
func (r *Result) Tagged() []Unit {
	var out []Unit
	for _, u := range r.Units {
		if len(u.Tags) > 0 {
			out = append(out, u)
		}
	}
	return out
}

func sortUnits(units []Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})
}

func sortMarkers(markers []Marker) {
	sort.SliceStable(markers, func(i, j int) bool {
		a, b := markers[i], markers[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Kind < b.Kind
	})
}
