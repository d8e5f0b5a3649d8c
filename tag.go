package testsize

import (
	"errors"
	"fmt"

	"github.com/phrazzld/testsize/internal/selector"
)

// Tag is a label attached to a test unit. Size tags form a fixed vocabulary;
// any other valid name is a free-form tag.
type Tag string

// Size tags.
const (
	TagSmall  Tag = "small"
	TagMedium Tag = "medium"
	TagLarge  Tag = "large"
)

// ErrInvalidTag is returned when a tag name is not a single go/build/constraint
// identifier: letters, digits, underscores and dots.
var ErrInvalidTag = errors.New("invalid tag")

// Sizes returns the size vocabulary ordered from smallest to largest.
func Sizes() []Tag {
	return []Tag{TagSmall, TagMedium, TagLarge}
}

// ParseTag validates s and returns it as a Tag.
func ParseTag(s string) (Tag, error) {
	if !selector.ValidTag(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, s)
	}
	return Tag(s), nil
}

// IsSize reports whether t is one of the size tags.
func (t Tag) IsSize() bool {
	switch t {
	case TagSmall, TagMedium, TagLarge:
		return true
	}
	return false
}

// Valid reports whether t is a well-formed tag name. Tags are validated the
// same way as selection entries, so every tag can appear in an expression.
func (t Tag) Valid() bool {
	return selector.ValidTag(string(t))
}

func (t Tag) String() string {
	return string(t)
}
