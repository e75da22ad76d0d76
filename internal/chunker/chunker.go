// Package chunker splits an extracted document into token-budgeted chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/billyribeiro-ux/build-ops/internal/extract"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

// Strategy names how a document was split.
type Strategy string

const (
	StrategySinglePass   Strategy = "single_pass"
	StrategySectionBased Strategy = "section_based"
	StrategyMultiPass    Strategy = "multi_pass"
)

const (
	contextLines    = 3
	contextMaxRunes = 200
)

// Chunk is one unit of analysis.
type Chunk struct {
	Index          int    `json:"index"`
	Content        string `json:"content"`
	TokenCount     int    `json:"token_count"`
	SectionRefs    []int  `json:"section_refs"`
	IsContinuation bool   `json:"is_continuation"`
}

// Document is the chunk plan for one extracted document.
type Document struct {
	Chunks      []Chunk  `json:"chunks"`
	TotalTokens int      `json:"total_tokens"`
	Strategy    Strategy `json:"chunk_strategy"`
}

// Config holds the token thresholds.
type Config struct {
	SinglePassLimit      int
	MultiPassThreshold   int
	SectionChunkTokens   int
	MultiPassChunkTokens int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		SinglePassLimit:      150_000,
		MultiPassThreshold:   500_000,
		SectionChunkTokens:   100_000,
		MultiPassChunkTokens: 80_000,
	}
}

// Chunker picks a strategy by total token count and applies it.
type Chunker struct {
	Tokenizer Tokenizer
	Config    Config
}

// New builds a Chunker. Zero config fields fall back to the defaults.
func New(tok Tokenizer, cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.SinglePassLimit <= 0 {
		cfg.SinglePassLimit = def.SinglePassLimit
	}
	if cfg.MultiPassThreshold <= 0 {
		cfg.MultiPassThreshold = def.MultiPassThreshold
	}
	if cfg.SectionChunkTokens <= 0 {
		cfg.SectionChunkTokens = def.SectionChunkTokens
	}
	if cfg.MultiPassChunkTokens <= 0 {
		cfg.MultiPassChunkTokens = def.MultiPassChunkTokens
	}
	return &Chunker{Tokenizer: tok, Config: cfg}
}

// Chunk splits doc. Sections are never split across chunks.
func (c *Chunker) Chunk(doc extract.Document) (Document, error) {
	if c == nil || c.Tokenizer == nil {
		return Document{}, apperr.Internal("chunk document", "tokenizer is not configured")
	}

	total := c.Tokenizer.Count(doc.RawText)
	switch {
	case total < c.Config.SinglePassLimit:
		return Document{
			Chunks: []Chunk{{
				Index:       0,
				Content:     doc.RawText,
				TokenCount:  total,
				SectionRefs: allRefs(len(doc.Sections)),
			}},
			TotalTokens: total,
			Strategy:    StrategySinglePass,
		}, nil
	case total < c.Config.MultiPassThreshold:
		return c.bySections(doc, total), nil
	default:
		return c.multiPass(doc, total), nil
	}
}

// group is a run of consecutive sections that fits one budget.
type group struct {
	content string
	tokens  int
	refs    []int
}

// pack greedily groups rendered sections under budget.
func (c *Chunker) pack(sections []extract.Section, budget int) []group {
	var (
		groups  []group
		current strings.Builder
		tokens  int
		refs    []int
	)
	for idx, s := range sections {
		text := SectionText(s)
		n := c.Tokenizer.Count(text)
		if tokens+n > budget && current.Len() > 0 {
			groups = append(groups, group{content: current.String(), tokens: tokens, refs: refs})
			current.Reset()
			tokens = 0
			refs = nil
		}
		current.WriteString(text)
		tokens += n
		refs = append(refs, idx)
	}
	if current.Len() > 0 {
		groups = append(groups, group{content: current.String(), tokens: tokens, refs: refs})
	}
	return groups
}

func (c *Chunker) bySections(doc extract.Document, total int) Document {
	groups := c.pack(doc.Sections, c.Config.SectionChunkTokens)
	if len(groups) == 0 {
		return rawOnly(doc, total, StrategySectionBased)
	}
	out := Document{Chunks: make([]Chunk, 0, len(groups)), Strategy: StrategySectionBased}
	for i, g := range groups {
		out.Chunks = append(out.Chunks, Chunk{
			Index:          i,
			Content:        g.content,
			TokenCount:     g.tokens,
			SectionRefs:    g.refs,
			IsContinuation: i > 0,
		})
		out.TotalTokens += g.tokens
	}
	return out
}

func (c *Chunker) multiPass(doc extract.Document, total int) Document {
	groups := c.pack(doc.Sections, c.Config.MultiPassChunkTokens)
	if len(groups) == 0 {
		return rawOnly(doc, total, StrategyMultiPass)
	}
	n := len(groups)
	out := Document{Chunks: make([]Chunk, 0, n), Strategy: StrategyMultiPass}
	for i, g := range groups {
		content := g.content
		if i > 0 {
			content = Preamble(i+1, n, doc.FileName, PreviousContext(groups[i-1].content)) + content
		}
		// Count after the preamble so TotalTokens matches the emitted content.
		tokens := c.Tokenizer.Count(content)
		out.Chunks = append(out.Chunks, Chunk{
			Index:          i,
			Content:        content,
			TokenCount:     tokens,
			SectionRefs:    g.refs,
			IsContinuation: i > 0,
		})
		out.TotalTokens += tokens
	}
	return out
}

// SectionText renders a section the way chunks carry it.
func SectionText(s extract.Section) string {
	return fmt.Sprintf("\n\n## %s\n\n%s", s.Heading, s.Content)
}

// Preamble introduces a continuation chunk in a multi-pass plan.
func Preamble(k, n int, fileName, previous string) string {
	return fmt.Sprintf("This is chunk %d/%d of document '%s'. Previous context: %s\n\n", k, n, fileName, previous)
}

// PreviousContext is the last three lines of content joined by spaces,
// truncated to 200 characters.
func PreviousContext(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > contextLines {
		lines = lines[len(lines)-contextLines:]
	}
	joined := strings.Join(lines, " ")
	runes := []rune(joined)
	if len(runes) > contextMaxRunes {
		runes = runes[:contextMaxRunes]
	}
	return string(runes)
}

func rawOnly(doc extract.Document, total int, strategy Strategy) Document {
	return Document{
		Chunks: []Chunk{{
			Index:       0,
			Content:     doc.RawText,
			TokenCount:  total,
			SectionRefs: []int{},
		}},
		TotalTokens: total,
		Strategy:    strategy,
	}
}

func allRefs(n int) []int {
	refs := make([]int, n)
	for i := range refs {
		refs[i] = i
	}
	return refs
}
