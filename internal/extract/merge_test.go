package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSingleDocumentUnchanged(t *testing.T) {
	doc := Document{FileName: "one.md", RawText: "body", TotalPages: 2}

	assert.Equal(t, doc, Merge([]Document{doc}))
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	a := Document{
		FileName:   "a.md",
		TotalPages: 2,
		RawText:    "alpha",
		Sections:   []Section{{Heading: "A1"}},
		CodeBlocks: []CodeBlock{{Content: "fn a() {}"}},
		Metadata: Metadata{
			WordCount:         10,
			DetectedLanguages: []string{"rust"},
			DetectedTopics:    []string{"testing", "rust"},
		},
	}
	b := Document{
		FileName:   "b.txt",
		TotalPages: 1,
		RawText:    "beta",
		Sections:   []Section{{Heading: "B1"}, {Heading: "B2"}},
		Metadata: Metadata{
			WordCount:         5,
			DetectedLanguages: []string{"python", "rust"},
			DetectedTopics:    []string{"api"},
		},
	}

	merged := Merge([]Document{a, b})

	assert.Equal(t, MultiFileName, merged.FileName)
	require.NotNil(t, merged.Metadata.Title)
	assert.Equal(t, MultiFileName, *merged.Metadata.Title)
	assert.Equal(t, "\n\n=== FILE: a.md (2 pages) ===\n\nalpha\n\n=== FILE: b.txt (1 pages) ===\n\nbeta", merged.RawText)
	assert.Equal(t, 3, merged.TotalPages)
	assert.Equal(t, 3, merged.Metadata.PageCount)
	assert.Equal(t, 15, merged.Metadata.WordCount)
	require.Len(t, merged.Sections, 3)
	assert.Equal(t, "B2", merged.Sections[2].Heading)
	assert.Len(t, merged.CodeBlocks, 1)
	assert.Equal(t, []string{"python", "rust"}, merged.Metadata.DetectedLanguages)
	assert.Equal(t, []string{"api", "rust", "testing"}, merged.Metadata.DetectedTopics)
}
