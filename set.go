package testsize

import (
	"sort"
	"strings"
)

// Set is an unordered collection of tags. The zero value is an empty set
// ready for reads; use NewSet or Add to populate it.
//
// Size tags are not mutually exclusive: a Set may hold several of them.
type Set struct {
	m map[Tag]struct{}
}

// NewSet returns a set holding tags.
func NewSet(tags ...Tag) Set {
	s := Set{m: make(map[Tag]struct{}, len(tags))}
	for _, t := range tags {
		s.m[t] = struct{}{}
	}
	return s
}

// Add inserts tags into the set, allocating it if needed.
func (s *Set) Add(tags ...Tag) {
	if s.m == nil {
		s.m = make(map[Tag]struct{}, len(tags))
	}
	for _, t := range tags {
		s.m[t] = struct{}{}
	}
}

// Has reports whether t is in the set.
func (s Set) Has(t Tag) bool {
	_, ok := s.m[t]
	return ok
}

// Len returns the number of tags in the set.
func (s Set) Len() int {
	return len(s.m)
}

// Union returns a new set holding the tags of s and every other set.
func (s Set) Union(others ...Set) Set {
	out := NewSet(s.Sorted()...)
	for _, o := range others {
		for t := range o.m {
			out.m[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []Tag {
	tags := make([]Tag, 0, len(s.m))
	for t := range s.m {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Strings returns the tags in lexical order as plain strings.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, t := range sorted {
		out[i] = string(t)
	}
	return out
}

// Sizes returns the size tags present in the set, smallest first.
func (s Set) Sizes() []Tag {
	var sizes []Tag
	for _, t := range Sizes() {
		if s.Has(t) {
			sizes = append(sizes, t)
		}
	}
	return sizes
}

// String renders the set as "{a, b}".
func (s Set) String() string {
	return "{" + strings.Join(s.Strings(), ", ") + "}"
}
