package vocab

import "sort"

// TokenCount pairs a token with its corpus frequency.
type TokenCount struct {
	Token string
	Count int
}

// Counter accumulates token frequencies and remembers the order in which
// tokens were first seen.
type Counter struct {
	counts map[string]int
	order  []string
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts every token of one document.
func (c *Counter) Add(tokens []string) {
	for _, tok := range tokens {
		if _, seen := c.counts[tok]; !seen {
			c.order = append(c.order, tok)
		}
		c.counts[tok]++
	}
}

// Count returns the frequency of tok.
func (c *Counter) Count(tok string) int {
	return c.counts[tok]
}

// Len returns the number of distinct tokens counted.
func (c *Counter) Len() int {
	return len(c.order)
}

// MostCommon returns the n most frequent tokens, most frequent first.
// Equal counts keep first-encounter order. n <= 0 returns every token.
func (c *Counter) MostCommon(n int) []TokenCount {
	out := make([]TokenCount, len(c.order))
	for i, tok := range c.order {
		out[i] = TokenCount{Token: tok, Count: c.counts[tok]}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if n > 0 && n < len(out) {
		out = out[:n]
	}

	return out
}
