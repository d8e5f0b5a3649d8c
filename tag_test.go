package testsize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/testsize/internal/selector"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"large", false},
		{"extra", false},
		{"go1.22", false},
		{"needs_db", false},
		{"9p", false},
		{"größe", false},
		{"测试", false},
		{"", true},
		{"has space", true},
		{"dash-ed", true},
		{"a,b", true},
		{"large&&small", true},
		{"!large", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			tag, err := ParseTag(tc.input)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTag), "got %v", err)
				assert.Empty(t, tag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Tag(tc.input), tag)
			assert.True(t, tag.Valid())
		})
	}
}

func TestSizeVocabulary(t *testing.T) {
	assert.Equal(t, []Tag{"small", "medium", "large"}, Sizes())

	for _, size := range Sizes() {
		assert.True(t, size.IsSize(), "%s should be a size", size)
	}
	assert.False(t, Tag("extra").IsSize())
	assert.False(t, Tag("Large").IsSize(), "sizes are case sensitive")
}

func TestTagValidationMatchesSelector(t *testing.T) {
	for _, name := range []string{"größe", "go1.22", "needs_db", "dash-ed", "", "a b"} {
		_, err := ParseTag(name)
		assert.Equal(t, selector.ValidTag(name), err == nil, "ParseTag and selection entries disagree on %q", name)
		assert.Equal(t, selector.ValidTag(name), Tag(name).Valid(), name)
	}
}
