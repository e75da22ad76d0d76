package extract

import (
	"sort"
	"strings"
	"unicode"
)

const defaultHeading = "Introduction"

var complexityKeywords = []string{
	"algorithm",
	"implementation",
	"architecture",
	"async",
	"await",
	"closure",
	"generic",
	"trait",
	"interface",
}

var topicKeywords = []string{
	"svelte",
	"react",
	"vue",
	"typescript",
	"javascript",
	"rust",
	"python",
	"css",
	"html",
	"api",
	"database",
	"authentication",
	"testing",
	"deployment",
}

// IsHeading reports whether a PDF or plain-text line looks like a heading.
func IsHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return isShouting(trimmed, true) ||
		strings.HasPrefix(trimmed, "Chapter ") ||
		strings.HasPrefix(trimmed, "Section ") ||
		strings.HasPrefix(trimmed, "Part ") ||
		(len(trimmed) < 60 && strings.HasSuffix(trimmed, ":"))
}

// HeadingLevel maps a heading line onto 1-3.
func HeadingLevel(line string) int {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "# "):
		return 1
	case strings.HasPrefix(trimmed, "## "):
		return 2
	case strings.HasPrefix(trimmed, "### "):
		return 3
	case isShouting(trimmed, false):
		return 1
	default:
		return 2
	}
}

// isShouting reports whether s is uppercase letters and whitespace, optionally
// with digits, and holds at least one letter.
func isShouting(s string, allowDigits bool) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case unicode.IsSpace(r):
		case allowDigits && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}

// DetectLanguage sniffs a code snippet. The empty string means unknown.
func DetectLanguage(code string) string {
	switch {
	case strings.Contains(code, "fn ") || strings.Contains(code, "impl ") || strings.Contains(code, "pub "):
		return "rust"
	case strings.Contains(code, "const ") || strings.Contains(code, "let ") || strings.Contains(code, "function "):
		return "javascript"
	case strings.Contains(code, "def ") || strings.Contains(code, "import "):
		return "python"
	case strings.Contains(code, "<script>") || strings.Contains(code, "</script>"):
		return "svelte"
	case strings.Contains(code, "{") && strings.Contains(code, "}") && strings.Contains(code, ":"):
		return "css"
	default:
		return ""
	}
}

// EstimateComplexity scores section content on a 1-5 scale.
func EstimateComplexity(content string, hasCode bool) int {
	score := 1
	if hasCode {
		score++
	}
	if len(content) > 2000 {
		score++
	}
	if len(content) > 5000 {
		score++
	}
	lower := strings.ToLower(content)
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			score++
			break
		}
	}
	if score > 5 {
		score = 5
	}
	return score
}

// DetectTopics returns the sorted topic keywords present in text.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	sort.Strings(out)
	return out
}

func hasListMarker(content string) bool {
	return strings.Contains(content, "- ") || strings.Contains(content, "* ")
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func strPtr(s string) *string {
	return &s
}
