package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isSize(tag string) bool {
	return tag == "small" || tag == "medium" || tag == "large"
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		tags     []string
		expected bool
	}{
		{
			name:     "empty selection accepts untagged",
			opts:     Options{},
			tags:     nil,
			expected: true,
		},
		{
			name:     "include matches one of several tags",
			opts:     Options{Include: []string{"medium"}},
			tags:     []string{"extra", "medium"},
			expected: true,
		},
		{
			name:     "include rejects unrelated tags",
			opts:     Options{Include: []string{"small"}},
			tags:     []string{"extra"},
			expected: false,
		},
		{
			name:     "exclude wins over include",
			opts:     Options{Include: []string{"large"}, Exclude: []string{"flaky"}},
			tags:     []string{"large", "flaky"},
			expected: false,
		},
		{
			name:     "comma separated include entry",
			opts:     Options{Include: []string{"small, medium"}},
			tags:     []string{"medium"},
			expected: true,
		},
		{
			name:     "expression with negation",
			opts:     Options{Expr: "large && !flaky"},
			tags:     []string{"large"},
			expected: true,
		},
		{
			name:     "expression rejects",
			opts:     Options{Expr: "large && !flaky"},
			tags:     []string{"large", "flaky"},
			expected: false,
		},
		{
			name:     "expression with disjunction",
			opts:     Options{Expr: "small || medium"},
			tags:     []string{"medium"},
			expected: true,
		},
		{
			name:     "default size applies to unsized unit",
			opts:     Options{Include: []string{"medium"}, DefaultSize: "medium", IsSize: isSize},
			tags:     []string{"extra"},
			expected: true,
		},
		{
			name:     "default size ignored when unit has a size",
			opts:     Options{Include: []string{"medium"}, DefaultSize: "medium", IsSize: isSize},
			tags:     []string{"large"},
			expected: false,
		},
		{
			name:     "untagged unit without default size is not included",
			opts:     Options{Include: []string{"medium"}},
			tags:     nil,
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s.Match(tc.tags))
		})
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"bad include", Options{Include: []string{"not-valid"}}, ErrInvalidTag},
		{"bad exclude", Options{Exclude: []string{"a b"}}, ErrInvalidTag},
		{"bad expression", Options{Expr: "large &&"}, ErrInvalidExpression},
		{"default size without vocabulary", Options{DefaultSize: "medium"}, ErrInvalidTag},
		{"default size not a size", Options{DefaultSize: "extra", IsSize: isSize}, ErrInvalidTag},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.opts)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestNilSelectorAcceptsEverything(t *testing.T) {
	var s *Selector
	assert.True(t, s.Empty())
	assert.True(t, s.Match([]string{"large"}))
	assert.False(t, s.Excluded([]string{"large"}))
	assert.Equal(t, "all", s.String())
	assert.Empty(t, s.Include())
}

func TestExcluded(t *testing.T) {
	s, err := New(Options{
		Include:     []string{"extra"},
		Exclude:     []string{"flaky", "small"},
		Expr:        "medium && extra",
		DefaultSize: "small",
		IsSize:      isSize,
	})
	require.NoError(t, err)

	// Include and expression do not take part: a partial tag set is not
	// excluded just because it has not matched yet.
	assert.False(t, s.Excluded([]string{"medium"}))
	assert.True(t, s.Excluded([]string{"medium", "flaky"}))
	assert.False(t, s.Excluded([]string{"extra"}), "the default size is not assumed")
	assert.True(t, s.Excluded([]string{"extra", "small"}))
	assert.False(t, s.Match([]string{"extra"}), "Match assumes the default size")
}

func TestString(t *testing.T) {
	s, err := New(Options{
		Include:     []string{"large"},
		Exclude:     []string{"flaky"},
		Expr:        "large||medium",
		DefaultSize: "medium",
		IsSize:      isSize,
	})
	require.NoError(t, err)

	assert.Equal(t, "include=large exclude=flaky expr=large || medium default_size=medium", s.String())
	assert.Equal(t, "large || medium", s.Expr())
	assert.Equal(t, "medium", s.DefaultSize())
}
