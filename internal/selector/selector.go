package selector

import (
	"errors"
	"fmt"
	"go/build/constraint"
	"strings"
)

var (
	// ErrInvalidExpression is returned when a selection expression does not
	// parse as a build-constraint expression.
	ErrInvalidExpression = errors.New("invalid selection expression")

	// ErrInvalidTag is returned when an include or exclude entry is not a
	// valid tag name.
	ErrInvalidTag = errors.New("invalid selection tag")
)

// Options configures a Selector.
type Options struct {
	Include []string
	Exclude []string
	// Expr is a build-constraint expression over tag names.
	Expr string
	// DefaultSize is assumed for units that carry no size tag. Empty means
	// such units are matched on their explicit tags only.
	DefaultSize string
	// IsSize reports whether a tag belongs to the size vocabulary. It is
	// required when DefaultSize is set.
	IsSize func(tag string) bool
}

// Selector matches tag sets against a selection. The zero value and a nil
// *Selector accept everything.
type Selector struct {
	include     []string
	exclude     []string
	expr        constraint.Expr
	exprText    string
	defaultSize string
	isSize      func(string) bool
}

// New validates opts and builds a Selector.
func New(opts Options) (*Selector, error) {
	s := &Selector{
		defaultSize: opts.DefaultSize,
		isSize:      opts.IsSize,
	}

	var err error
	if s.include, err = cleanTags(opts.Include); err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	if s.exclude, err = cleanTags(opts.Exclude); err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}

	if text := strings.TrimSpace(opts.Expr); text != "" {
		expr, err := constraint.Parse("//go:build " + text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, text, err)
		}
		s.expr = expr
		s.exprText = expr.String()
	}

	if s.defaultSize != "" {
		if !ValidTag(s.defaultSize) {
			return nil, fmt.Errorf("default size: %w: %q", ErrInvalidTag, s.defaultSize)
		}
		if s.isSize == nil || !s.isSize(s.defaultSize) {
			return nil, fmt.Errorf("default size: %w: %q is not a size", ErrInvalidTag, s.defaultSize)
		}
	}

	return s, nil
}

// Match reports whether a unit carrying tags is selected.
//
// Exclusion wins over inclusion. When an include list is set the unit needs
// at least one included tag, and when an expression is set it must hold.
func (s *Selector) Match(tags []string) bool {
	if s.Empty() {
		return true
	}

	has := s.tagSet(tags)
	if s.excluded(has) {
		return false
	}

	if len(s.include) > 0 {
		included := false
		for _, t := range s.include {
			if has[t] {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	if s.expr != nil && !s.expr.Eval(func(tag string) bool { return has[tag] }) {
		return false
	}

	return true
}

// Excluded reports whether tags hit the exclude list. The default size is
// not assumed. Unlike Match the answer holds for any superset of tags, so it
// can be checked before every tag of a unit is known.
func (s *Selector) Excluded(tags []string) bool {
	if s == nil || len(s.exclude) == 0 {
		return false
	}
	has := make(map[string]bool, len(tags))
	for _, t := range tags {
		has[t] = true
	}
	return s.excluded(has)
}

func (s *Selector) excluded(has map[string]bool) bool {
	for _, t := range s.exclude {
		if has[t] {
			return true
		}
	}
	return false
}

// tagSet indexes tags, adding the default size when none is present.
func (s *Selector) tagSet(tags []string) map[string]bool {
	has := make(map[string]bool, len(tags)+1)
	hasSize := false
	for _, t := range tags {
		has[t] = true
		if s.isSize != nil && s.isSize(t) {
			hasSize = true
		}
	}
	if !hasSize && s.defaultSize != "" {
		has[s.defaultSize] = true
	}
	return has
}

// Empty reports whether the selector accepts every unit.
func (s *Selector) Empty() bool {
	return s == nil || (len(s.include) == 0 && len(s.exclude) == 0 && s.expr == nil)
}

// Include returns the include list.
func (s *Selector) Include() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.include...)
}

// Exclude returns the exclude list.
func (s *Selector) Exclude() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.exclude...)
}

// Expr returns the normalized expression, or "" when none is set.
func (s *Selector) Expr() string {
	if s == nil {
		return ""
	}
	return s.exprText
}

// DefaultSize returns the size assumed for units without one.
func (s *Selector) DefaultSize() string {
	if s == nil {
		return ""
	}
	return s.defaultSize
}

// String describes the selection for skip messages and logs.
func (s *Selector) String() string {
	if s.Empty() {
		return "all"
	}
	var parts []string
	if len(s.include) > 0 {
		parts = append(parts, "include="+strings.Join(s.include, ","))
	}
	if len(s.exclude) > 0 {
		parts = append(parts, "exclude="+strings.Join(s.exclude, ","))
	}
	if s.exprText != "" {
		parts = append(parts, "expr="+s.exprText)
	}
	if s.defaultSize != "" {
		parts = append(parts, "default_size="+s.defaultSize)
	}
	return strings.Join(parts, " ")
}

// cleanTags trims entries, drops empty ones and validates the rest. Entries
// may themselves be comma separated, as they arrive from environment
// variables.
func cleanTags(in []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range in {
		for _, t := range strings.Split(entry, ",") {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			if !ValidTag(t) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidTag, t)
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// ValidTag reports whether t parses as a single build-constraint identifier.
func ValidTag(t string) bool {
	expr, err := constraint.Parse("//go:build " + t)
	if err != nil {
		return false
	}
	tagExpr, ok := expr.(*constraint.TagExpr)
	return ok && tagExpr.Tag == t
}
