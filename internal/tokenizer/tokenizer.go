// Package tokenizer provides the line tokenizers injected into dataset
// construction. A tokenizer turns one raw line of the corpus into an ordered
// list of string tokens; the dataset never looks inside it.
package tokenizer

import (
	"fmt"
	"strings"
)

const (
	KindWhitespace    = "whitespace"
	KindSocial        = "social"
	KindSentencePiece = "sentencepiece"
)

// Tokenizer splits a raw line into tokens.
type Tokenizer interface {
	Tokenize(line string) []string
}

// Func adapts a plain function to Tokenizer.
type Func func(line string) []string

func (f Func) Tokenize(line string) []string { return f(line) }

// Options configures New.
type Options struct {
	Lowercase          bool
	SentencePieceModel string
}

// NormalizeKind canonicalizes a tokenizer kind name.
func NormalizeKind(raw string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(raw))
	if kind == "" {
		kind = KindSocial
	}

	switch kind {
	case KindWhitespace, KindSocial, KindSentencePiece:
		return kind, nil
	case "ws", "fields":
		return KindWhitespace, nil
	case "spm", "sp":
		return KindSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid tokenizer %q (expected %s|%s|%s)",
			raw,
			KindWhitespace,
			KindSocial,
			KindSentencePiece,
		)
	}
}

// New builds the tokenizer named by kind.
func New(kind string, opts Options) (Tokenizer, error) {
	normalized, err := NormalizeKind(kind)
	if err != nil {
		return nil, err
	}

	switch normalized {
	case KindWhitespace:
		return Whitespace{Lowercase: opts.Lowercase}, nil
	case KindSentencePiece:
		return NewSentencePieceTokenizer(opts.SentencePieceModel, opts.Lowercase)
	default:
		return NewSocial(opts.Lowercase), nil
	}
}
