package absa

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt size for logging and the call ledger.
type TokenCounter interface {
	CountTokens(s string) int
}

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
	tokenizerErr  error
)

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter returns a cl100k_base counter. The encoding is loaded once per process; the first
// load may fetch the BPE ranks over the network, so callers should treat an error as "no estimate"
// rather than a failure.
func NewTokenCounter() (TokenCounter, error) {
	tokenizerOnce.Do(func() {
		tokenizer, tokenizerErr = tiktoken.GetEncoding("cl100k_base")
	})
	if tokenizerErr != nil {
		return nil, tokenizerErr
	}
	return tiktokenCounter{enc: tokenizer}, nil
}

func (t tiktokenCounter) CountTokens(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}
