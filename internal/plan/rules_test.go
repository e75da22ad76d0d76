package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampMinutes(t *testing.T) {
	cases := []struct {
		in      int
		want    int
		changed bool
	}{
		{0, 45, true},
		{-10, 45, true},
		{30, 45, true},
		{45, 45, false},
		{90, 90, false},
		{180, 180, false},
		{181, 180, true},
		{1000, 180, true},
	}
	for _, tc := range cases {
		got, changed := ClampMinutes(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.changed, changed, tc.in)

		again, changedAgain := ClampMinutes(got)
		assert.Equal(t, got, again)
		assert.False(t, changedAgain)
	}
}

func TestNormalizeColor(t *testing.T) {
	got, ok := NormalizeColor("#ec4899")
	assert.True(t, ok)
	assert.Equal(t, "#EC4899", got)

	got, ok = NormalizeColor("#123456")
	assert.False(t, ok)
	assert.Equal(t, DefaultColor, got)

	got, ok = NormalizeColor("")
	assert.False(t, ok)
	assert.Equal(t, DefaultColor, got)
}

func TestComplexity(t *testing.T) {
	assert.Equal(t, 1, Complexity("let x = 1;", "print it", 60))
	assert.Equal(t, 2, Complexity("", "", 100))
	assert.Equal(t, 3, Complexity("", "", 150))
	assert.Equal(t, 2, Complexity("async fn", "await the result with a closure", 60))
	assert.Equal(t, 2, Complexity("", "Design the State Management layer", 60))
	assert.Equal(t, 5, Complexity(strings.Repeat("generic ", 100), "", 170))
}

func TestNormalizeTagName(t *testing.T) {
	assert.Equal(t, "async/await", NormalizeTagName("  Async/Await "))
}
