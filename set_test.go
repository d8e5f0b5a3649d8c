package testsize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet(TagMedium, "extra", TagMedium)

	assert.Equal(t, 2, s.Len(), "duplicates collapse")
	assert.True(t, s.Has(TagMedium))
	assert.True(t, s.Has("extra"))
	assert.False(t, s.Has(TagSmall))
	assert.Equal(t, []Tag{"extra", "medium"}, s.Sorted())
	assert.Equal(t, "{extra, medium}", s.String())
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(TagLarge))
	assert.Equal(t, "{}", s.String())

	s.Add(TagLarge)
	assert.True(t, s.Has(TagLarge))
}

func TestSetUnionLeavesOperandsUntouched(t *testing.T) {
	a := NewSet(TagSmall)
	b := NewSet("extra")

	u := a.Union(b, Set{})

	assert.Equal(t, []string{"extra", "small"}, u.Strings())
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestSetSizesAreNotExclusive(t *testing.T) {
	s := NewSet(TagLarge, "extra", TagSmall)
	assert.Equal(t, []Tag{TagSmall, TagLarge}, s.Sizes())
	assert.Empty(t, NewSet("extra").Sizes())
}
