package extract

import "strings"

// page is the text of one physical (PDF) or logical (text file) page.
type page struct {
	number int
	text   string
}

// lineBuilder turns heading-delimited lines into sections and code blocks.
type lineBuilder struct {
	sections   []Section
	codeBlocks []CodeBlock
	languages  map[string]struct{}

	heading     string
	level       int
	sectionPage int
	content     strings.Builder
	hasIndented bool

	inCode   bool
	code     strings.Builder
	codePage int
}

func newLineBuilder() *lineBuilder {
	return &lineBuilder{
		heading:   defaultHeading,
		level:     1,
		languages: map[string]struct{}{},
	}
}

// build walks pages in order. When countHeadings is set, page numbers are
// synthetic: one plus the headings seen so far.
func (b *lineBuilder) build(pages []page, countHeadings bool) int {
	counter := 1
	for _, p := range pages {
		pageNumber := p.number
		if countHeadings {
			pageNumber = counter
		}
		for _, raw := range strings.Split(normalizeNewlines(p.text), "\n") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			if !isIndented(raw) && IsHeading(raw) {
				b.closeCode()
				b.flush()
				if countHeadings {
					counter++
					pageNumber = counter
				}
				b.heading = strings.TrimSpace(raw)
				b.level = HeadingLevel(raw)
				b.sectionPage = pageNumber
				continue
			}
			if b.sectionPage == 0 {
				b.sectionPage = pageNumber
			}
			if isIndented(raw) {
				if !b.inCode {
					b.inCode = true
					b.code.Reset()
					b.codePage = pageNumber
				}
				b.code.WriteString(strings.TrimSpace(raw))
				b.code.WriteByte('\n')
				b.hasIndented = true
			} else {
				b.closeCode()
			}
			b.content.WriteString(raw)
			b.content.WriteByte('\n')
		}
	}
	b.closeCode()
	b.flush()
	if countHeadings {
		return counter
	}
	return len(pages)
}

func (b *lineBuilder) closeCode() {
	if !b.inCode {
		return
	}
	b.inCode = false
	block := CodeBlock{
		Content:        b.code.String(),
		ContextHeading: b.heading,
		PageNumber:     b.codePage,
	}
	if lang := DetectLanguage(block.Content); lang != "" {
		block.Language = strPtr(lang)
		b.languages[lang] = struct{}{}
	}
	b.codeBlocks = append(b.codeBlocks, block)
	b.code.Reset()
}

func (b *lineBuilder) flush() {
	content := strings.TrimSpace(b.content.String())
	if content != "" {
		hasCode := b.hasIndented || strings.Contains(content, "```")
		page := b.sectionPage
		if page == 0 {
			page = 1
		}
		b.sections = append(b.sections, Section{
			Heading:    b.heading,
			Level:      b.level,
			Content:    content,
			PageNumber: page,
			HasCode:    hasCode,
			HasList:    hasListMarker(content),
			Complexity: EstimateComplexity(content, hasCode),
		})
	}
	b.content.Reset()
	b.hasIndented = false
	b.sectionPage = 0
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
