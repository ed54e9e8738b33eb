package knowledge

import (
	"encoding/json"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the tiktoken encoding used to size agent responses
const tokenEncoding = "cl100k_base"

// TokenCounter sizes text the way agent clients count it
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter. On error the returned counter is
// still usable and approximates counts from character length.
func NewTokenCounter() (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return &TokenCounter{}, err
	}
	return &TokenCounter{encoder: enc}, nil
}

// CountTokens counts the tokens in text
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.encoder == nil {
		return len(text) / 4
	}
	return len(tc.encoder.Encode(text, nil, nil))
}

// CountJSON counts the tokens of v's compact JSON encoding
func (tc *TokenCounter) CountJSON(v interface{}) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return tc.CountTokens(string(data))
}
