package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/sweetpotato0/selfrag/rag/tokenizer"
)

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// Tokenizer counts tokens with an OpenAI BPE encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer resolves name as a model first, then as an encoding
// name such as "cl100k_base".
func NewTiktokenTokenizer(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

func (t *Tokenizer) DecodeIds(ids []int) string {
	return t.enc.Decode(ids)
}
