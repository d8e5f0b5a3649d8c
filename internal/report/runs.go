package report

import (
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/phrazzld/testsize/internal/discovery"
	"github.com/phrazzld/testsize/internal/selector"
)

// Run is one go test invocation.
type Run struct {
	// Package is the import path of the package under test.
	Package string `json:"package" yaml:"package"`
	// Dir is the package directory relative to the scan root.
	Dir string `json:"dir" yaml:"dir"`
	// BuildTags are passed with -tags.
	BuildTags []string `json:"build_tags,omitempty" yaml:"build_tags,omitempty"`
	// Pattern is the -run argument.
	Pattern string `json:"pattern" yaml:"pattern"`
	// Units are the selected unit names the pattern covers.
	Units []string `json:"units" yaml:"units"`
}

// Command returns the go test command line for r, run from the scan root.
func (r Run) Command() string {
	var b strings.Builder
	b.WriteString("go test")
	if len(r.BuildTags) > 0 {
		b.WriteString(" -tags=" + strings.Join(r.BuildTags, ","))
	}
	b.WriteString(" -run " + shellQuote(r.Pattern) + " ")
	b.WriteString(packageArg(r.Dir))
	return b.String()
}

// shellQuote wraps s in single quotes for a POSIX shell. Embedded single
// quotes are closed, escaped and reopened.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func packageArg(dir string) string {
	if dir == "" || dir == "." {
		return "."
	}
	return "./" + path.Clean(dir)
}

type runGroup struct {
	pkg, dir string
	tags     []string
	tops     map[string]*topLevel
}

type topLevel struct {
	name     string
	units    []discovery.Unit
	selected []discovery.Unit
}

// RunPatterns returns the go test invocations that run exactly the units sel
// selects. Units are grouped by package and required build tags. A test whose
// subtests are only partly selected gets its own invocations naming them.
func RunPatterns(units []discovery.Unit, sel *selector.Selector) []Run {
	groups := make(map[string]*runGroup)
	var order []string

	for _, u := range units {
		tags := discovery.RequiredBuildTags(u.Constraint)
		key := u.Package + "\x00" + u.Dir + "\x00" + strings.Join(tags, ",")
		g, ok := groups[key]
		if !ok {
			g = &runGroup{pkg: u.Package, dir: u.Dir, tags: tags, tops: make(map[string]*topLevel)}
			groups[key] = g
			order = append(order, key)
		}
		top := u.TopLevel()
		tl, ok := g.tops[top]
		if !ok {
			tl = &topLevel{name: top}
			g.tops[top] = tl
		}
		tl.units = append(tl.units, u)
		if sel.Match(u.Tags) {
			tl.selected = append(tl.selected, u)
		}
	}
	sort.Strings(order)

	var runs []Run
	for _, key := range order {
		runs = append(runs, groups[key].runs()...)
	}
	return runs
}

func (g *runGroup) runs() []Run {
	names := make([]string, 0, len(g.tops))
	for name := range g.tops {
		names = append(names, name)
	}
	sort.Strings(names)

	var whole []string
	var partial []Run
	for _, name := range names {
		tl := g.tops[name]
		switch {
		case len(tl.selected) == 0:
		case len(tl.selected) == len(tl.units):
			whole = append(whole, name)
		default:
			partial = append(partial, g.partialRun(tl)...)
		}
	}

	var runs []Run
	if len(whole) > 0 {
		runs = append(runs, Run{
			Package:   g.pkg,
			Dir:       g.dir,
			BuildTags: g.tags,
			Pattern:   anchoredAlternation(whole),
			Units:     whole,
		})
	}
	return append(runs, partial...)
}

// unitNode is a test unit in the subtest tree of one top-level test.
type unitNode struct {
	name     string
	segment  string
	selected bool
	children []*unitNode
}

// whole reports whether n and every unit below it are selected.
func (n *unitNode) whole() bool {
	if !n.selected {
		return false
	}
	for _, c := range n.children {
		if !c.whole() {
			return false
		}
	}
	return true
}

func (n *unitNode) names(out []string) []string {
	out = append(out, n.name)
	for _, c := range n.children {
		out = c.names(out)
	}
	return out
}

// subtestTree arranges the units of tl by parent name.
func subtestTree(tl *topLevel) *unitNode {
	selected := make(map[string]bool, len(tl.selected))
	for _, u := range tl.selected {
		selected[u.Name] = true
	}

	units := append([]discovery.Unit(nil), tl.units...)
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	root := &unitNode{name: tl.name, segment: tl.name, selected: selected[tl.name]}
	nodes := map[string]*unitNode{tl.name: root}
	for _, u := range units {
		if u.Name == tl.name {
			continue
		}
		parent, ok := nodes[u.Parent()]
		if !ok {
			parent = root
		}
		n := &unitNode{
			name:     u.Name,
			segment:  strings.TrimPrefix(u.Name, parent.name+"/"),
			selected: selected[u.Name],
		}
		parent.children = append(parent.children, n)
		nodes[u.Name] = n
	}
	return root
}

// partialRun returns the invocations for a top-level test whose subtests are
// only partly selected. Each level of the subtest tree gets its own -run
// element, so a pattern never reaches an unselected sibling. Parent bodies
// run whenever one of their subtests does.
func (g *runGroup) partialRun(tl *topLevel) []Run {
	var runs []Run
	g.collect(subtestTree(tl), []string{anchoredAlternation([]string{tl.name})}, &runs)
	return runs
}

func (g *runGroup) collect(n *unitNode, prefix []string, runs *[]Run) {
	first := len(*runs)

	var whole, covered []string
	for _, c := range n.children {
		if c.whole() {
			whole = append(whole, c.segment)
			covered = c.names(covered)
		}
	}
	if len(whole) > 0 {
		sort.Strings(whole)
		*runs = append(*runs, g.run(appendElem(prefix, anchoredAlternation(whole)), covered))
	}
	for _, c := range n.children {
		if !c.whole() {
			g.collect(c, appendElem(prefix, anchoredAlternation([]string{c.segment})), runs)
		}
	}

	if !n.selected {
		return
	}
	if len(*runs) == first {
		// Subtest names are never empty, so ^$ runs the body alone.
		*runs = append(*runs, g.run(appendElem(prefix, "^$"), []string{n.name}))
		return
	}
	r := &(*runs)[first]
	r.Units = append(r.Units, n.name)
	sort.Strings(r.Units)
}

func (g *runGroup) run(elems []string, units []string) Run {
	sort.Strings(units)
	return Run{
		Package:   g.pkg,
		Dir:       g.dir,
		BuildTags: g.tags,
		Pattern:   strings.Join(elems, "/"),
		Units:     units,
	}
}

func appendElem(prefix []string, elem string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, elem)
}

// anchoredAlternation builds ^name$ or ^(a|b)$ with names quoted.
func anchoredAlternation(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	if len(quoted) == 1 {
		return "^" + quoted[0] + "$"
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

// WriteRuns renders run invocations as shell lines, JSON or YAML.
func WriteRuns(w io.Writer, format Format, runs []Run) error {
	switch format {
	case FormatShell, FormatText:
		ew := &errWriter{w: w}
		for _, r := range runs {
			ew.printf("%s\n", r.Command())
		}
		return ew.err
	case FormatJSON:
		return writeJSON(w, runDocuments(runs))
	case FormatYAML:
		return writeYAML(w, runDocuments(runs))
	default:
		return unsupported(format, "run commands")
	}
}

type runDocument struct {
	Run         `yaml:",inline"`
	CommandLine string `json:"command" yaml:"command"`
}

func runDocuments(runs []Run) []runDocument {
	docs := make([]runDocument, len(runs))
	for i, r := range runs {
		docs[i] = runDocument{Run: r, CommandLine: r.Command()}
	}
	return docs
}
