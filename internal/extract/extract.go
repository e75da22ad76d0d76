// Package extract turns PDF, Markdown and plain-text study guides into a
// sectioned Document.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

const (
	extPDF      = ".pdf"
	extMD       = ".md"
	extMarkdown = ".markdown"
	extTXT      = ".txt"
)

// Supported reports whether the file name has an extension Extract can read.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case extPDF, extMD, extMarkdown, extTXT:
		return true
	default:
		return false
	}
}

// Extract reads the file at path and dispatches on its lowercase extension.
func Extract(ctx context.Context, path string) (Document, error) {
	return ExtractAs(ctx, path, filepath.Base(path))
}

// ExtractAs extracts path but reports fileName as the document name, which is
// used when the bytes were staged under a temporary path.
func ExtractAs(ctx context.Context, path, fileName string) (Document, error) {
	const op = "extract"
	ext := strings.ToLower(filepath.Ext(fileName))
	if !Supported(fileName) {
		return Document{}, apperr.Validation(op, "unsupported file type: %s", strings.TrimPrefix(ext, "."))
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	switch ext {
	case extPDF:
		return extractPDF(ctx, path, fileName)
	case extMD, extMarkdown:
		data, err := readFile(op, path)
		if err != nil {
			return Document{}, err
		}
		return extractMarkdown(fileName, string(data)), nil
	default:
		data, err := readFile(op, path)
		if err != nil {
			return Document{}, err
		}
		return extractText(fileName, string(data)), nil
	}
}

func readFile(op, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.IO(op, fmt.Errorf("read %s: %w", filepath.Base(path), err))
	}
	return data, nil
}

func extractText(fileName, content string) Document {
	b := newLineBuilder()
	pages := b.build([]page{{number: 1, text: content}}, true)
	return finish(fileName, content, pages, b.sections, b.codeBlocks, b.languages)
}

func finish(fileName, raw string, pages int, sections []Section, blocks []CodeBlock, languages map[string]struct{}) Document {
	return Document{
		FileName:   fileName,
		TotalPages: pages,
		RawText:    raw,
		Sections:   nonNilSections(sections),
		CodeBlocks: nonNilCodeBlocks(blocks),
		Metadata: Metadata{
			Title:             strPtr(fileName),
			PageCount:         pages,
			WordCount:         len(strings.Fields(raw)),
			DetectedLanguages: sortedSet(languages),
			DetectedTopics:    DetectTopics(raw),
		},
	}
}

func nonNilSections(s []Section) []Section {
	if s == nil {
		return []Section{}
	}
	return s
}

func nonNilCodeBlocks(c []CodeBlock) []CodeBlock {
	if c == nil {
		return []CodeBlock{}
	}
	return c
}
