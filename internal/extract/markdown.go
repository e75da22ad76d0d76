package extract

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

// markdownBuilder accumulates blackfriday block nodes into sections.
type markdownBuilder struct {
	sections   []Section
	codeBlocks []CodeBlock
	languages  map[string]struct{}

	heading string
	level   int
	page    int
	blocks  []string
	hasCode bool
	hasList bool
}

func extractMarkdown(fileName, content string) Document {
	parser := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := parser.Parse([]byte(normalizeNewlines(content)))

	b := &markdownBuilder{
		heading:   defaultHeading,
		level:     1,
		page:      1,
		languages: map[string]struct{}{},
	}
	for node := root.FirstChild; node != nil; node = node.Next {
		b.visit(node)
	}
	b.flush()

	return finish(fileName, content, b.page, b.sections, b.codeBlocks, b.languages)
}

func (b *markdownBuilder) visit(node *blackfriday.Node) {
	switch node.Type {
	case blackfriday.Heading:
		b.flush()
		b.page++
		b.heading = strings.TrimSpace(inlineText(node))
		b.level = node.HeadingData.Level
	case blackfriday.CodeBlock:
		b.addCode(node)
	default:
		if containsType(node, blackfriday.List) {
			b.hasList = true
		}
		node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
			if entering && n.Type == blackfriday.CodeBlock && n != node {
				b.addCode(n)
				return blackfriday.SkipChildren
			}
			return blackfriday.GoToNext
		})
		if text := strings.TrimSpace(blockText(node)); text != "" {
			b.blocks = append(b.blocks, text)
		}
	}
}

func (b *markdownBuilder) addCode(node *blackfriday.Node) {
	var lang string
	if fields := strings.Fields(string(node.CodeBlockData.Info)); len(fields) > 0 {
		lang = fields[0]
	}
	block := CodeBlock{
		Content:        string(node.Literal),
		ContextHeading: b.heading,
		PageNumber:     b.page,
	}
	if lang != "" {
		block.Language = strPtr(lang)
		b.languages[lang] = struct{}{}
	}
	b.codeBlocks = append(b.codeBlocks, block)
	b.hasCode = true
	if node.Parent != nil && node.Parent.Type == blackfriday.Document {
		b.blocks = append(b.blocks, "```"+lang+"\n"+strings.TrimRight(string(node.Literal), "\n")+"\n```")
	}
}

func (b *markdownBuilder) flush() {
	content := strings.TrimSpace(strings.Join(b.blocks, "\n\n"))
	if content != "" {
		b.sections = append(b.sections, Section{
			Heading:    b.heading,
			Level:      b.level,
			Content:    content,
			PageNumber: b.page,
			HasCode:    b.hasCode,
			HasList:    b.hasList,
			Complexity: EstimateComplexity(content, b.hasCode),
		})
	}
	b.blocks = nil
	b.hasCode = false
	b.hasList = false
}

// inlineText concatenates the literal text under node.
func inlineText(node *blackfriday.Node) string {
	var sb strings.Builder
	node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering {
			return blackfriday.GoToNext
		}
		switch n.Type {
		case blackfriday.Text, blackfriday.HTMLSpan:
			sb.Write(n.Literal)
		case blackfriday.Code:
			sb.WriteByte('`')
			sb.Write(n.Literal)
			sb.WriteByte('`')
		case blackfriday.Softbreak, blackfriday.Hardbreak:
			sb.WriteByte('\n')
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}

// blockText renders a block node back to plain text, keeping list markers
// and fencing nested code.
func blockText(node *blackfriday.Node) string {
	var sb strings.Builder
	node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch n.Type {
		case blackfriday.Item:
			if entering {
				sb.WriteString("- ")
			}
		case blackfriday.Paragraph, blackfriday.HTMLBlock, blackfriday.TableRow:
			if !entering {
				sb.WriteByte('\n')
			}
		case blackfriday.TableCell:
			if !entering {
				sb.WriteString(" | ")
			}
		case blackfriday.CodeBlock:
			if entering {
				sb.WriteString("```\n")
				sb.Write(n.Literal)
				sb.WriteString("```\n")
			}
			return blackfriday.SkipChildren
		}
		if entering {
			switch n.Type {
			case blackfriday.Text, blackfriday.HTMLSpan, blackfriday.HTMLBlock:
				sb.Write(n.Literal)
			case blackfriday.Code:
				sb.WriteByte('`')
				sb.Write(n.Literal)
				sb.WriteByte('`')
			case blackfriday.Softbreak, blackfriday.Hardbreak:
				sb.WriteByte('\n')
			}
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}

func containsType(node *blackfriday.Node, t blackfriday.NodeType) bool {
	found := false
	node.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && n.Type == t {
			found = true
			return blackfriday.Terminate
		}
		return blackfriday.GoToNext
	})
	return found
}
