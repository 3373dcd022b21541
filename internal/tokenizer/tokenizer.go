package tokenizer

import (
	"sync"

	"github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"
)

type Encoder interface {
	Encode(text string) []sentencepiece.Token
}

type LoadFunc func() (Encoder, error)

// Tokenizer counts Gemma tokens. The model is loaded on first use and shared
// read-only afterwards; a failed load is not retried.
type Tokenizer struct {
	load LoadFunc
	once sync.Once
	enc  Encoder
	err  error
}

// New returns a Tokenizer for the sentencepiece model at path.
func New(path string) *Tokenizer {
	return NewWithLoader(func() (Encoder, error) {
		proc, err := sentencepiece.NewProcessorFromPath(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load tokenizer model %s", path)
		}
		return proc, nil
	})
}

func NewWithLoader(load LoadFunc) *Tokenizer {
	return &Tokenizer{load: load}
}

func (t *Tokenizer) encoder() (Encoder, error) {
	t.once.Do(func() {
		t.enc, t.err = t.load()
	})
	return t.enc, t.err
}

// CountTokens returns the number of tokens of text including the leading
// <bos> token the Gemma tokenizer adds.
func (t *Tokenizer) CountTokens(text string) (int, error) {
	enc, err := t.encoder()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text)) + 1, nil
}
