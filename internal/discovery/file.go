package discovery

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/testsize"
)

// FileResult holds the units and findings of a single test file.
type FileResult struct {
	// File is the path the file was analyzed under.
	File string
	// PackageName is the name in the package clause.
	PackageName string
	Units       []Unit
	Findings    []Finding
	// PackageMarkers are PackageTags applications; they apply to every unit
	// of the directory, not only this file.
	PackageMarkers []Marker
	Constraint     string
}

// sizeMarkers maps marker function names to the size they apply.
var sizeMarkers = map[string]testsize.Tag{
	"Small":  testsize.TagSmall,
	"Medium": testsize.TagMedium,
	"Large":  testsize.TagLarge,
}

// tagConstants maps exported Tag constants to their values.
var tagConstants = map[string]testsize.Tag{
	"TagSmall":  testsize.TagSmall,
	"TagMedium": testsize.TagMedium,
	"TagLarge":  testsize.TagLarge,
}

const (
	funcLabel       = "Label"
	funcMark        = "Mark"
	funcPackageTags = "PackageTags"
	funcTagType     = "Tag"
	directiveTag    = "tag"
)

// AnalyzeSource analyzes the source of one test file. filename is used for
// positions and in the result; importPath identifies the marker package.
func AnalyzeSource(filename string, src []byte, importPath string) (*FileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	a := &fileAnalyzer{
		fset:        fset,
		file:        file,
		filename:    filename,
		markerName:  importName(file, importPath),
		testingName: importName(file, "testing"),
		seen:        make(map[token.Pos]bool),
	}
	return a.analyze(), nil
}

type fileAnalyzer struct {
	fset        *token.FileSet
	file        *ast.File
	filename    string
	markerName  string
	testingName string

	fileMarkers []Marker
	units       []*unitBuilder
	findings    []Finding
	pkgMarkers  []Marker
	seen        map[token.Pos]bool
}

type unitBuilder struct {
	unit     Unit
	parent   *unitBuilder
	children map[string]int
}

func (a *fileAnalyzer) analyze() *FileResult {
	constraintExpr := ExtractBuildConstraint(a.file)

	for _, group := range headerComments(a.file) {
		a.fileMarkers = append(a.fileMarkers, a.directiveMarkers(group, SourceFileDirective, "")...)
	}

	for _, decl := range a.file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Body == nil {
			continue
		}
		kind, param, ok := a.testFunc(fn)
		if !ok {
			continue
		}

		b := &unitBuilder{unit: Unit{
			File:       a.filename,
			Line:       position(a.fset, fn.Pos()),
			Name:       fn.Name.Name,
			Kind:       kind,
			Constraint: constraintExpr,
		}}
		b.unit.Markers = append(b.unit.Markers, a.fileMarkers...)
		b.unit.Markers = append(b.unit.Markers, a.directiveMarkers(fn.Doc, SourceDirective, fn.Name.Name)...)
		a.units = append(a.units, b)
		a.walk(b, param, fn.Body)
	}

	a.collectPackageAndStray()

	res := &FileResult{
		File:           a.filename,
		PackageName:    a.file.Name.Name,
		Findings:       a.findings,
		PackageMarkers: a.pkgMarkers,
		Constraint:     constraintExpr,
	}
	for _, b := range a.units {
		tags := testsize.Set{}
		if b.parent != nil {
			for _, t := range b.parent.unit.Tags {
				tags.Add(testsize.Tag(t))
			}
		}
		for _, m := range b.unit.Markers {
			tags.Add(testsize.Tag(m.Tag))
		}
		b.unit.Tags = tags.Strings()
		res.Units = append(res.Units, b.unit)
	}
	return res
}

// testFunc reports whether fn is a test, benchmark or fuzz function and
// returns the name of its *testing.T/B/F parameter.
func (a *fileAnalyzer) testFunc(fn *ast.FuncDecl) (Kind, string, bool) {
	if a.testingName == "" {
		return "", "", false
	}

	var kind Kind
	var typeName string
	switch name := fn.Name.Name; {
	case isTestName(name, "Test"):
		kind, typeName = KindTest, "T"
	case isTestName(name, "Benchmark"):
		kind, typeName = KindBenchmark, "B"
	case isTestName(name, "Fuzz"):
		kind, typeName = KindFuzz, "F"
	default:
		return "", "", false
	}

	params := fn.Type.Params.List
	if len(params) != 1 || len(params[0].Names) > 1 || fn.Type.Results != nil {
		return "", "", false
	}
	if !a.isTestingPointer(params[0].Type, typeName) {
		return "", "", false
	}

	param := "_"
	if len(params[0].Names) == 1 {
		param = params[0].Names[0].Name
	}
	return kind, param, true
}

func (a *fileAnalyzer) isTestingPointer(expr ast.Expr, typeName string) bool {
	star, ok := expr.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == a.testingName && sel.Sel.Name == typeName
}

// walk records the marker calls in body against b and creates subunits for
// literal t.Run calls made on param.
func (a *fileAnalyzer) walk(b *unitBuilder, param string, body ast.Node) {
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		if name, ok := a.markerCall(call); ok {
			if name != funcPackageTags {
				a.seen[call.Pos()] = true
				a.recordCall(b, name, call)
			}
			return true
		}

		if name, lit, ok := runCall(call, param); ok {
			inner := funcParamName(lit)
			if name == nil {
				// Dynamic subtest names cannot be predicted; their markers
				// count for the enclosing unit.
				a.walk(b, inner, lit.Body)
			} else {
				a.walk(a.subunit(b, *name, call), inner, lit.Body)
			}
			return false
		}
		return true
	})
}

func (a *fileAnalyzer) subunit(parent *unitBuilder, name string, call *ast.CallExpr) *unitBuilder {
	if parent.children == nil {
		parent.children = make(map[string]int)
	}
	name = rewriteSubtestName(name)
	n := parent.children[name]
	parent.children[name]++
	if n > 0 || name == "" {
		name = fmt.Sprintf("%s#%02d", name, n)
	}

	b := &unitBuilder{
		parent: parent,
		unit: Unit{
			File:       a.filename,
			Line:       position(a.fset, call.Pos()),
			Name:       parent.unit.Name + "/" + name,
			Kind:       parent.unit.Kind,
			Constraint: parent.unit.Constraint,
		},
	}
	a.units = append(a.units, b)
	return b
}

// markerCall reports whether call invokes a function of the marker package
// that discovery understands.
func (a *fileAnalyzer) markerCall(call *ast.CallExpr) (string, bool) {
	if a.markerName == "" {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || pkg.Name != a.markerName {
		return "", false
	}
	switch name := sel.Sel.Name; name {
	case funcLabel, funcMark, funcPackageTags:
		return name, true
	default:
		_, ok := sizeMarkers[name]
		return name, ok
	}
}

func (a *fileAnalyzer) recordCall(b *unitBuilder, name string, call *ast.CallExpr) {
	line := position(a.fset, call.Pos())
	for _, tag := range a.callTags(name, call, b.unit.Name) {
		b.unit.Markers = append(b.unit.Markers, Marker{
			Tag:    tag,
			Source: SourceCall,
			File:   a.filename,
			Line:   line,
		})
	}
}

// callTags resolves the tags applied by a marker call. Arguments that cannot
// be read statically are reported as findings.
func (a *fileAnalyzer) callTags(name string, call *ast.CallExpr, unit string) []string {
	var tags []string
	size, isSize := sizeMarkers[name]
	if isSize {
		tags = append(tags, string(size))
	}

	// Markers take the test handle first; PackageTags does not.
	args := call.Args
	if name != funcPackageTags {
		if len(args) == 0 {
			return nil
		}
		args = args[1:]
	}

	line := position(a.fset, call.Pos())
	if call.Ellipsis.IsValid() {
		a.findings = append(a.findings, Finding{
			Kind:   FindingUnresolved,
			File:   a.filename,
			Line:   line,
			Unit:   unit,
			Detail: fmt.Sprintf("%s.%s called with a spread argument", a.markerName, name),
		})
		return tags
	}

	// Labels passed to Label and to the size markers are plain strings.
	literalOnly := isSize || name == funcLabel
	for _, arg := range args {
		tag, ok := a.tagArg(arg, literalOnly)
		if !ok {
			a.findings = append(a.findings, Finding{
				Kind:   FindingUnresolved,
				File:   a.filename,
				Line:   position(a.fset, arg.Pos()),
				Unit:   unit,
				Detail: fmt.Sprintf("%s.%s argument %s is not a literal tag", a.markerName, name, exprString(a.fset, arg)),
			})
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// tagArg resolves a string literal, a Tag constant or a Tag conversion of a
// literal. Label and the size markers only accept string literals.
func (a *fileAnalyzer) tagArg(arg ast.Expr, literalOnly bool) (string, bool) {
	if s, ok := stringLit(arg); ok {
		return s, true
	}
	if literalOnly {
		return "", false
	}

	switch x := arg.(type) {
	case *ast.SelectorExpr:
		if pkg, ok := x.X.(*ast.Ident); ok && pkg.Name == a.markerName {
			if tag, ok := tagConstants[x.Sel.Name]; ok {
				return string(tag), true
			}
		}
	case *ast.CallExpr:
		sel, ok := x.Fun.(*ast.SelectorExpr)
		if !ok || len(x.Args) != 1 {
			break
		}
		if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == a.markerName && sel.Sel.Name == funcTagType {
			return stringLit(x.Args[0])
		}
	}
	return "", false
}

// collectPackageAndStray records PackageTags calls anywhere in the file and
// reports marker calls that no test function owns.
func (a *fileAnalyzer) collectPackageAndStray() {
	ast.Inspect(a.file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		name, ok := a.markerCall(call)
		if !ok {
			return true
		}

		line := position(a.fset, call.Pos())
		if name == funcPackageTags {
			for _, tag := range a.callTags(name, call, "") {
				a.pkgMarkers = append(a.pkgMarkers, Marker{Tag: tag, Source: SourcePackage, File: a.filename, Line: line})
			}
			return true
		}
		if !a.seen[call.Pos()] {
			a.findings = append(a.findings, Finding{
				Kind:   FindingStray,
				File:   a.filename,
				Line:   line,
				Detail: fmt.Sprintf("%s.%s called outside a test function cannot be discovered", a.markerName, name),
			})
		}
		return true
	})
}

// directiveMarkers reads //testsize:tag directives from group.
func (a *fileAnalyzer) directiveMarkers(group *ast.CommentGroup, source Source, unit string) []Marker {
	if group == nil {
		return nil
	}
	var markers []Marker
	for _, c := range group.List {
		d, ok := parseDirective(c.Text)
		if !ok {
			continue
		}
		line := position(a.fset, c.Pos())
		if d.verb != directiveTag {
			a.findings = append(a.findings, Finding{
				Kind:   FindingUnknownDirective,
				File:   a.filename,
				Line:   line,
				Unit:   unit,
				Detail: fmt.Sprintf("unknown directive %q", strings.TrimPrefix(c.Text, "//")),
			})
			continue
		}
		for _, tag := range d.args {
			markers = append(markers, Marker{Tag: tag, Source: source, File: a.filename, Line: line})
		}
	}
	return markers
}

// runCall matches param.Run(name, func(x *testing.T) {...}). name is nil when
// the subtest name is not a string literal.
func runCall(call *ast.CallExpr, param string) (*string, *ast.FuncLit, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Run" || len(call.Args) != 2 {
		return nil, nil, false
	}
	recv, ok := sel.X.(*ast.Ident)
	if !ok || recv.Name != param || param == "_" {
		return nil, nil, false
	}
	lit, ok := call.Args[1].(*ast.FuncLit)
	if !ok {
		return nil, nil, false
	}
	if name, ok := stringLit(call.Args[0]); ok {
		return &name, lit, true
	}
	return nil, lit, true
}

func funcParamName(lit *ast.FuncLit) string {
	params := lit.Type.Params.List
	if len(params) == 0 || len(params[0].Names) == 0 {
		return "_"
	}
	return params[0].Names[0].Name
}

// importName returns the local name under which file imports importPath, or
// "" when it does not, or imports it blank or dot.
func importName(file *ast.File, importPath string) string {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return ""
			}
			return imp.Name.Name
		}
		return path.Base(importPath)
	}
	return ""
}

func stringLit(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	return s, err == nil
}

// isTestName follows go test: the suffix after prefix must not start with a
// lower-case letter.
func isTestName(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	if len(name) == len(prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return !unicode.IsLower(r)
}

// rewriteSubtestName applies the rewriting go test performs on subtest names.
func rewriteSubtestName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case !strconv.IsPrint(r):
			s := strconv.QuoteRune(r)
			b.WriteString(s[1 : len(s)-1])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// exprString renders e as source for findings.
func exprString(fset *token.FileSet, e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, e); err != nil {
		return fmt.Sprintf("%T", e)
	}
	return buf.String()
}
