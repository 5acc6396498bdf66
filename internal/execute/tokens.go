package execute

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	Count(text string) (int, error)
}

// TiktokenCounter counts tokens with a tiktoken encoding.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &TiktokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) (int, error) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// countAll sums the token counts of texts.
func countAll(c TokenCounter, texts ...string) (int, error) {
	total := 0
	for _, t := range texts {
		if t == "" {
			continue
		}
		n, err := c.Count(t)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
