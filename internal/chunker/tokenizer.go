package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

// Tokenizer counts model tokens in a piece of text.
type Tokenizer interface {
	Count(text string) int
}

// TiktokenTokenizer counts cl100k_base tokens.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var (
	cl100kOnce sync.Once
	cl100k     *tiktoken.Tiktoken
	cl100kErr  error
)

// NewTiktoken loads the cl100k_base encoding once per process.
func NewTiktoken() (*TiktokenTokenizer, error) {
	cl100kOnce.Do(func() {
		cl100k, cl100kErr = tiktoken.GetEncoding("cl100k_base")
	})
	if cl100kErr != nil {
		return nil, apperr.External("init tokenizer", fmt.Errorf("failed to initialize tokenizer: %w", cl100kErr))
	}
	return &TiktokenTokenizer{enc: cl100k}, nil
}

// Count encodes text with special tokens allowed and returns the token count.
func (t *TiktokenTokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, []string{"all"}, nil))
}

// WordTokenizer counts whitespace separated words. It is deterministic and
// offline, which suits tests and dry runs.
type WordTokenizer struct{}

// Count returns the number of words in text.
func (WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}
