package discovery

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
	"sort"
	"strings"
)

// ExtractBuildConstraint returns the normalized build constraint declared in
// the file header, or "". A //go:build line wins over // +build lines.
func ExtractBuildConstraint(file *ast.File) string {
	var plus []constraint.Expr
	for _, group := range headerComments(file) {
		for _, c := range group.List {
			switch {
			case constraint.IsGoBuild(c.Text):
				if expr, err := constraint.Parse(c.Text); err == nil {
					return expr.String()
				}
			case constraint.IsPlusBuild(c.Text):
				if expr, err := constraint.Parse(c.Text); err == nil {
					plus = append(plus, expr)
				}
			}
		}
	}

	if len(plus) == 0 {
		return ""
	}
	expr := plus[0]
	for _, next := range plus[1:] {
		expr = &constraint.AndExpr{X: expr, Y: next}
	}
	return expr.String()
}

// RequiredBuildTags returns the custom tags that must be passed to go test
// -tags for a file guarded by expr to compile. Negated tags, platform tags
// and release tags are left out.
func RequiredBuildTags(expr string) []string {
	if expr == "" {
		return nil
	}
	parsed, err := constraint.Parse("//go:build " + expr)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var walk func(e constraint.Expr, negated bool)
	walk = func(e constraint.Expr, negated bool) {
		switch x := e.(type) {
		case *constraint.TagExpr:
			if !negated && !isImplicitTag(x.Tag) {
				seen[x.Tag] = true
			}
		case *constraint.NotExpr:
			walk(x.X, !negated)
		case *constraint.AndExpr:
			walk(x.X, negated)
			walk(x.Y, negated)
		case *constraint.OrExpr:
			walk(x.X, negated)
			walk(x.Y, negated)
		}
	}
	walk(parsed, false)

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// headerComments returns the comment groups that precede the package clause.
func headerComments(file *ast.File) []*ast.CommentGroup {
	var groups []*ast.CommentGroup
	for _, group := range file.Comments {
		if group.End() >= file.Package {
			break
		}
		groups = append(groups, group)
	}
	return groups
}

// isImplicitTag reports whether tag is set by the toolchain rather than by
// -tags.
func isImplicitTag(tag string) bool {
	if strings.HasPrefix(tag, "go1.") || tag == "cgo" || tag == "gc" || tag == "gccgo" || tag == "unix" {
		return true
	}
	return knownOS[tag] || knownArch[tag]
}

var knownOS = map[string]bool{
	"aix": true, "android": true, "darwin": true, "dragonfly": true, "freebsd": true,
	"hurd": true, "illumos": true, "ios": true, "js": true, "linux": true, "nacl": true,
	"netbsd": true, "openbsd": true, "plan9": true, "solaris": true, "wasip1": true,
	"windows": true, "zos": true,
}

var knownArch = map[string]bool{
	"386": true, "amd64": true, "arm": true, "arm64": true, "loong64": true, "mips": true,
	"mipsle": true, "mips64": true, "mips64le": true, "ppc64": true, "ppc64le": true,
	"riscv64": true, "s390x": true, "wasm": true,
}

// position converts p into a line number.
func position(fset *token.FileSet, p token.Pos) int {
	return fset.Position(p).Line
}
