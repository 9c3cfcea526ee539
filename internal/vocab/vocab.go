// Package vocab builds the token to id mapping shared by every split of the
// emoji corpus. Ids are dense and start at zero; the padding and unknown
// symbols always occupy ids 0 and 1.
package vocab

import "fmt"

const (
	PadSymbol = "<PAD>"
	UnkSymbol = "<UNK>"

	PadID = 0
	UnkID = 1
)

// DefaultSize is the number of content tokens kept when no size is given.
const DefaultSize = 10000

// Vocabulary is an immutable token to id mapping.
type Vocabulary struct {
	ids    map[string]int
	tokens []string
	unk    int
}

// Build creates a Vocabulary from counted tokens. The reserved symbols are
// assigned first, then the maxSize most common tokens in frequency order.
func Build(c *Counter, maxSize int) *Vocabulary {
	v := &Vocabulary{ids: make(map[string]int, max(maxSize, 0)+2)}
	v.add(PadSymbol)
	v.add(UnkSymbol)

	for _, tc := range c.MostCommon(maxSize) {
		v.add(tc.Token)
	}

	v.unk = v.ids[UnkSymbol]

	return v
}

// FromTokens wraps an id-ordered token list, typically a vocabulary built on
// another split or restored from disk. Duplicate tokens keep their first id.
// A list without UnkSymbol still resolves unknown tokens to UnkID.
func FromTokens(tokens []string) *Vocabulary {
	v := &Vocabulary{
		ids:    make(map[string]int, len(tokens)),
		tokens: make([]string, 0, len(tokens)),
	}
	for _, tok := range tokens {
		v.add(tok)
	}

	v.unk = UnkID
	if id, ok := v.ids[UnkSymbol]; ok {
		v.unk = id
	}

	return v
}

func (v *Vocabulary) add(tok string) {
	if _, exists := v.ids[tok]; exists {
		return
	}

	v.ids[tok] = len(v.tokens)
	v.tokens = append(v.tokens, tok)
}

// ID reports the id of tok and whether it is in the vocabulary.
func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Lookup returns the id of tok, or the unknown symbol id.
func (v *Vocabulary) Lookup(tok string) int {
	if id, ok := v.ids[tok]; ok {
		return id
	}

	return v.unk
}

// Encode maps tokens to ids, preserving order.
func (v *Vocabulary) Encode(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.Lookup(tok)
	}

	return ids
}

// Token returns the token with the given id.
func (v *Vocabulary) Token(id int) (string, error) {
	if id < 0 || id >= len(v.tokens) {
		return "", fmt.Errorf("vocab: id %d out of range [0, %d)", id, len(v.tokens))
	}

	return v.tokens[id], nil
}

// Tokens returns every token ordered by id.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Len returns the number of entries, reserved symbols included.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Equal reports whether both vocabularies assign the same ids.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if v == nil || other == nil {
		return v == other
	}

	if len(v.tokens) != len(other.tokens) {
		return false
	}

	for i := range v.tokens {
		if v.tokens[i] != other.tokens[i] {
			return false
		}
	}

	return true
}
