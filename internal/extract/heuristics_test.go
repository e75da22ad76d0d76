package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHeading(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"INTRODUCTION", true},
		{"PART 2 ADVANCED", true},
		{"Chapter 3 Lifetimes", true},
		{"Section 1.2", true},
		{"Part Two", true},
		{"Key takeaways:", true},
		{"  ", false},
		{"12", false},
		{"Just a sentence.", false},
		{"chapter lowercase prefix", false},
		{strings.Repeat("a", 70) + ":", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsHeading(tc.line), tc.line)
	}
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, HeadingLevel("# Title"))
	assert.Equal(t, 2, HeadingLevel("## Title"))
	assert.Equal(t, 3, HeadingLevel("### Title"))
	assert.Equal(t, 1, HeadingLevel("OVERVIEW"))
	assert.Equal(t, 2, HeadingLevel("PART 2"))
	assert.Equal(t, 2, HeadingLevel("Chapter 1"))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "rust", DetectLanguage("pub fn main() {}"))
	assert.Equal(t, "javascript", DetectLanguage("const x = 1;"))
	assert.Equal(t, "python", DetectLanguage("def run():\n    pass"))
	assert.Equal(t, "svelte", DetectLanguage("<script>\n</script>"))
	assert.Equal(t, "css", DetectLanguage(".btn { color: red }"))
	assert.Equal(t, "", DetectLanguage("echo hello"))
}

func TestEstimateComplexity(t *testing.T) {
	assert.Equal(t, 1, EstimateComplexity("short", false))
	assert.Equal(t, 2, EstimateComplexity("short", true))
	assert.Equal(t, 3, EstimateComplexity(strings.Repeat("x", 2001), true))
	assert.Equal(t, 4, EstimateComplexity(strings.Repeat("x", 5001), true))
	assert.Equal(t, 5, EstimateComplexity(strings.Repeat("x", 5001)+" Async", true))
}

func TestDetectTopicsSortedAndDeduped(t *testing.T) {
	got := DetectTopics("Testing the API with React and react-dom against a database")
	assert.Equal(t, []string{"api", "database", "react", "testing"}, got)
}
