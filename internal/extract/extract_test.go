package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractRejectsUnsupportedExtension(t *testing.T) {
	_, err := Extract(context.Background(), "/does/not/exist/notes.docx")

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "docx")
}

func TestExtractMissingFileIsIOError(t *testing.T) {
	_, err := Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Equal(t, apperr.KindIO, apperr.KindOf(err))
}

func TestExtractPlainText(t *testing.T) {
	content := strings.Join([]string{
		"Welcome to the course.",
		"",
		"GETTING STARTED",
		"Install the toolchain first.",
		"- rustup",
		"- cargo",
		"Chapter 2 Ownership",
		"Ownership is the core trait of the language.",
		"    fn main() {",
		"        let s = String::new();",
		"    }",
		"That is all.",
	}, "\n")
	path := writeFile(t, "guide.txt", content)

	doc, err := Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Introduction", doc.Sections[0].Heading)
	assert.Equal(t, 1, doc.Sections[0].PageNumber)

	assert.Equal(t, "GETTING STARTED", doc.Sections[1].Heading)
	assert.Equal(t, 1, doc.Sections[1].Level)
	assert.True(t, doc.Sections[1].HasList)
	assert.Equal(t, 2, doc.Sections[1].PageNumber)

	ownership := doc.Sections[2]
	assert.Equal(t, "Chapter 2 Ownership", ownership.Heading)
	assert.Equal(t, 2, ownership.Level)
	assert.True(t, ownership.HasCode)
	// base 1, code +1, keyword "trait" +1
	assert.Equal(t, 3, ownership.Complexity)

	require.Len(t, doc.CodeBlocks, 1)
	require.NotNil(t, doc.CodeBlocks[0].Language)
	assert.Equal(t, "rust", *doc.CodeBlocks[0].Language)
	assert.Equal(t, "Chapter 2 Ownership", doc.CodeBlocks[0].ContextHeading)

	assert.Equal(t, 3, doc.TotalPages)
	assert.Equal(t, []string{"rust"}, doc.Metadata.DetectedLanguages)
	assert.Equal(t, []string{"rust"}, doc.Metadata.DetectedTopics)
	assert.Equal(t, len(strings.Fields(content)), doc.Metadata.WordCount)
	require.NotNil(t, doc.Metadata.Title)
	assert.Equal(t, "guide.txt", *doc.Metadata.Title)
	assert.Equal(t, content, doc.RawText)
}

func TestExtractSkipsEmptySections(t *testing.T) {
	path := writeFile(t, "headings.txt", "PART ONE\nPART TWO\nonly content here\n")

	doc, err := Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "PART TWO", doc.Sections[0].Heading)
}

func TestExtractBarePageNumbersAreNotHeadings(t *testing.T) {
	path := writeFile(t, "numbers.txt", "Intro text\n42\nmore text\n")

	doc, err := Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Contains(t, doc.Sections[0].Content, "42")
}

func TestExtractMarkdown(t *testing.T) {
	content := "Preface paragraph.\n\n" +
		"# Getting Started\n\n" +
		"Install **Svelte** with npm.\n\n" +
		"- create a project\n- run the dev server\n\n" +
		"## Components\n\n" +
		"```svelte\n<script>\n  let count = 0;\n</script>\n```\n\n" +
		"Components use `props`.\n"
	path := writeFile(t, "guide.md", content)

	doc, err := Extract(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Introduction", doc.Sections[0].Heading)
	assert.Equal(t, "Preface paragraph.", doc.Sections[0].Content)

	started := doc.Sections[1]
	assert.Equal(t, "Getting Started", started.Heading)
	assert.Equal(t, 1, started.Level)
	assert.True(t, started.HasList)
	assert.False(t, started.HasCode)
	assert.Contains(t, started.Content, "Install Svelte with npm.")
	assert.Contains(t, started.Content, "- create a project")

	components := doc.Sections[2]
	assert.Equal(t, "Components", components.Heading)
	assert.Equal(t, 2, components.Level)
	assert.True(t, components.HasCode)
	assert.Contains(t, components.Content, "`props`")
	assert.Equal(t, 3, components.PageNumber)

	require.Len(t, doc.CodeBlocks, 1)
	require.NotNil(t, doc.CodeBlocks[0].Language)
	assert.Equal(t, "svelte", *doc.CodeBlocks[0].Language)
	assert.Contains(t, doc.CodeBlocks[0].Content, "let count = 0;")
	assert.Equal(t, "Components", doc.CodeBlocks[0].ContextHeading)

	assert.Equal(t, []string{"svelte"}, doc.Metadata.DetectedLanguages)
	assert.Equal(t, 3, doc.TotalPages)
}

func TestExtractMarkdownExtensionIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, "NOTES.MARKDOWN", "# Title\n\nBody text.\n")

	doc, err := Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Title", doc.Sections[0].Heading)
}

func TestExtractPDF(t *testing.T) {
	doc, err := Extract(context.Background(), filepath.Join("testdata", "guide.pdf"))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.TotalPages)
	assert.Equal(t, 2, doc.Metadata.PageCount)
	assert.Contains(t, doc.RawText, "Ownership")
	assert.Contains(t, doc.RawText, "Borrowing")
	assert.NotEmpty(t, doc.Sections)
	require.NotNil(t, doc.Metadata.Title)
}

func TestExtractCorruptPDFIsExternalError(t *testing.T) {
	path := writeFile(t, "broken.pdf", "not really a pdf")

	_, err := Extract(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternalService, apperr.KindOf(err))
}

func TestExtractAsUsesDisplayName(t *testing.T) {
	path := writeFile(t, "buildops-123.txt", "Some content.\n")

	doc, err := ExtractAs(context.Background(), path, "week1.txt")
	require.NoError(t, err)
	assert.Equal(t, "week1.txt", doc.FileName)
}
