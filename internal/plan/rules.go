package plan

import "strings"

const (
	MinMinutes   = 45
	MaxMinutes   = 180
	DefaultColor = "#6366F1"
	DefaultTitle = "Imported Program"

	defaultChecklistLabel = "Complete the implementation"
	reflectionPoints      = 10
	reflectionSeconds     = 300
	minQuizSeconds        = 30
)

// Palette lists the module colors the UI renders.
var Palette = []string{"#6366F1", "#EC4899", "#F59E0B", "#22C55E", "#3B82F6", "#A855F7", "#EF4444", "#14B8A6"}

var complexKeywords = []string{
	"async", "await", "closure", "generic", "trait", "interface",
	"algorithm", "architecture", "state management", "optimization",
}

const (
	QuestionShortAnswer    = "short_answer"
	QuestionMultipleChoice = "multiple_choice"
	QuestionCodePrompt     = "code_prompt"
	QuestionReflection     = "reflection"

	DependencyPrerequisite = "prerequisite"
	DependencyRecommended  = "recommended"
)

// ClampMinutes bounds m to [MinMinutes, MaxMinutes] and reports whether it changed.
func ClampMinutes(m int) (int, bool) {
	switch {
	case m < MinMinutes:
		return MinMinutes, true
	case m > MaxMinutes:
		return MaxMinutes, true
	default:
		return m, false
	}
}

// NormalizeColor returns the palette entry matching c, case-insensitively.
func NormalizeColor(c string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(c))
	for _, p := range Palette {
		if up == p {
			return p, true
		}
	}
	return DefaultColor, false
}

// Complexity scores a day from 1 to 5.
func Complexity(syntax, brief string, minutes int) int {
	score := 1
	if minutes > 90 {
		score++
	}
	if minutes > 120 {
		score++
	}
	combined := strings.ToLower(syntax + " " + brief)
	for _, kw := range complexKeywords {
		if strings.Contains(combined, kw) {
			score++
			break
		}
	}
	if len(syntax) > 500 || len(brief) > 1000 {
		score++
	}
	if score > 5 {
		score = 5
	}
	return score
}

func questionType(t string) string {
	switch t {
	case QuestionShortAnswer, QuestionMultipleChoice, QuestionCodePrompt, QuestionReflection:
		return t
	default:
		return QuestionShortAnswer
	}
}

func dependencyType(t string) string {
	switch t {
	case DependencyPrerequisite, DependencyRecommended:
		return t
	default:
		return DependencyPrerequisite
	}
}

// NormalizeTagName trims and lowercases a concept tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func trim(s string) string { return strings.TrimSpace(s) }
