package extract

import (
	"fmt"
	"strings"
)

// MultiFileName names a document merged from several sources.
const MultiFileName = "Multi-file Import"

// Merge concatenates documents in order. A single document is returned as is.
func Merge(docs []Document) Document {
	if len(docs) == 1 {
		return docs[0]
	}

	var raw strings.Builder
	merged := Document{
		FileName:   MultiFileName,
		Sections:   []Section{},
		CodeBlocks: []CodeBlock{},
	}
	languages := map[string]struct{}{}
	topics := map[string]struct{}{}

	for _, doc := range docs {
		fmt.Fprintf(&raw, "\n\n=== FILE: %s (%d pages) ===\n\n", doc.FileName, doc.TotalPages)
		raw.WriteString(doc.RawText)

		merged.Sections = append(merged.Sections, doc.Sections...)
		merged.CodeBlocks = append(merged.CodeBlocks, doc.CodeBlocks...)
		merged.TotalPages += doc.TotalPages
		merged.Metadata.WordCount += doc.Metadata.WordCount
		for _, l := range doc.Metadata.DetectedLanguages {
			languages[l] = struct{}{}
		}
		for _, t := range doc.Metadata.DetectedTopics {
			topics[t] = struct{}{}
		}
	}

	merged.RawText = raw.String()
	merged.Metadata.Title = strPtr(MultiFileName)
	merged.Metadata.PageCount = merged.TotalPages
	merged.Metadata.DetectedLanguages = sortedSet(languages)
	merged.Metadata.DetectedTopics = sortedSet(topics)
	return merged
}
