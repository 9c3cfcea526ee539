package tokenizer

import "strings"

// Whitespace splits on runs of Unicode white space.
type Whitespace struct {
	Lowercase bool
}

func (w Whitespace) Tokenize(line string) []string {
	if w.Lowercase {
		line = strings.ToLower(line)
	}

	return strings.Fields(line)
}
