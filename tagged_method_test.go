package testsize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/testsize"
)

func TestSmallMethod(t *testing.T) {
	testsize.Small(t)

	assert.Equal(t, []string{"small"}, testsize.Tags(t).Strings())
}

func TestMediumMethod(t *testing.T) {
	testsize.Medium(t)

	assert.Equal(t, []string{"medium"}, testsize.Tags(t).Strings())
}

func TestExtraMethod(t *testing.T) {
	testsize.Label(t, "extra")

	assert.Equal(t, []string{"extra"}, testsize.Tags(t).Strings())
}

func TestMediumExtraMethod(t *testing.T) {
	testsize.Medium(t)
	testsize.Label(t, "extra")

	tags := testsize.Tags(t)
	assert.True(t, tags.Has(testsize.TagMedium))
	assert.True(t, tags.Has("extra"), "a size tag does not hide free-form tags")
	assert.Equal(t, []testsize.Tag{"medium", "extra"}, testsize.DefaultRegistry.Applications(t.Name()))
}

func TestMediumWithLabelMethod(t *testing.T) {
	testsize.Medium(t, "extra")

	assert.Equal(t, []string{"extra", "medium"}, testsize.Tags(t).Strings())
	assert.Equal(t, []testsize.Tag{"medium", "extra"}, testsize.DefaultRegistry.Applications(t.Name()))
}

//testsize:tag large
func TestLargeDirectiveMethod(t *testing.T) {
	// Directive tags are read from source only; at run time the test carries
	// no tags of its own.
	assert.Equal(t, 0, testsize.Tags(t).Len())
}

func TestSubtestMethods(t *testing.T) {
	testsize.Large(t)

	t.Run("with extra", func(t *testing.T) {
		testsize.Label(t, "extra")
		assert.Equal(t, []string{"extra", "large"}, testsize.Tags(t).Strings())
	})
}
