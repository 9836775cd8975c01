package transform

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens and truncates text at token granularity.
// Truncation decodes a prefix of the encoded token sequence, never cutting
// mid-token.
type Tokenizer interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// TiktokenTokenizer implements Tokenizer over a tiktoken BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer loads the cl100k_base encoding.
func NewTokenizer() (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns the decoding of the first maxTokens tokens of text.
// Text already within budget is returned unchanged.
func (t *TiktokenTokenizer) Truncate(text string, maxTokens int) string {
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[:maxTokens])
}
