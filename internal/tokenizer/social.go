package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Replacement and annotation tokens emitted by Social.
const (
	TagURL        = "<url>"
	TagEmail      = "<email>"
	TagUser       = "<user>"
	TagNumber     = "<number>"
	TagHashtag    = "<hashtag>"
	TagHashtagEnd = "</hashtag>"
	TagAllCaps    = "<allcaps>"
	TagElongated  = "<elongated>"
)

var socialPattern = regexp.MustCompile(
	`(?P<url>https?://\S+|www\.\S+)` +
		`|(?P<email>[\w.+-]+@[\w-]+\.[\w.-]+)` +
		`|(?P<user>@\w+)` +
		`|(?P<hashtag>#[\p{L}\p{N}_]+)` +
		`|(?P<number>[-+]?\d+(?:[.,:]\d+)*%?)` +
		`|(?P<word>[\p{L}\p{M}]+(?:'[\p{L}]+)?)` +
		`|(?P<symbol>[\p{So}\p{Sk}\x{200D}\x{FE0F}]+)` +
		`|(?P<punct>\p{P}+)`,
)

// Social tokenizes social-media posts: it normalizes URLs, e-mail
// addresses, user mentions and numbers to placeholder tokens, unpacks
// hashtags, annotates all-caps and elongated words, and keeps emoji and
// punctuation as separate tokens.
type Social struct {
	lowercase bool
	groups    []string
}

// NewSocial returns a Social tokenizer.
func NewSocial(lowercase bool) *Social {
	return &Social{lowercase: lowercase, groups: socialPattern.SubexpNames()}
}

func (s *Social) Tokenize(line string) []string {
	line = norm.NFKC.String(line)
	lower := cases.Lower(language.Und)

	var out []string

	for _, m := range socialPattern.FindAllStringSubmatchIndex(line, -1) {
		group, text := s.match(line, m)

		switch group {
		case "url":
			out = append(out, TagURL)
		case "email":
			out = append(out, TagEmail)
		case "user":
			out = append(out, TagUser)
		case "number":
			out = append(out, TagNumber)
		case "hashtag":
			out = append(out, TagHashtag, s.fold(lower, text[1:]), TagHashtagEnd)
		case "word":
			word, elongated := reduceElongation(text)
			allCaps := isAllCaps(word)
			out = append(out, s.fold(lower, word))

			if allCaps {
				out = append(out, TagAllCaps)
			}

			if elongated {
				out = append(out, TagElongated)
			}
		case "symbol":
			out = append(out, splitSymbols(text)...)
		default:
			out = append(out, text)
		}
	}

	return out
}

func (s *Social) match(line string, m []int) (string, string) {
	for i := 1; i < len(s.groups); i++ {
		if m[2*i] >= 0 {
			return s.groups[i], line[m[2*i]:m[2*i+1]]
		}
	}

	return "", line[m[0]:m[1]]
}

func (s *Social) fold(c cases.Caser, word string) string {
	if !s.lowercase {
		return word
	}

	return c.String(word)
}

// reduceElongation shortens runs of three or more identical letters to two.
func reduceElongation(word string) (string, bool) {
	runes := []rune(word)
	out := make([]rune, 0, len(runes))
	changed := false

	for i, r := range runes {
		if i >= 2 && r == runes[i-1] && r == runes[i-2] {
			changed = true
			continue
		}

		out = append(out, r)
	}

	if !changed {
		return word, false
	}

	return string(out), true
}

func isAllCaps(word string) bool {
	letters := 0

	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}

		if !unicode.IsUpper(r) {
			return false
		}

		letters++
	}

	return letters > 1
}

// splitSymbols separates adjacent emoji, keeping joiners and variation
// selectors attached to the preceding symbol.
func splitSymbols(text string) []string {
	var (
		out []string
		cur strings.Builder
	)

	for _, r := range text {
		joiner := r == '\u200d' || r == '\ufe0f'
		if !joiner && cur.Len() > 0 && !strings.HasSuffix(cur.String(), "\u200d") {
			out = append(out, cur.String())
			cur.Reset()
		}

		cur.WriteRune(r)
	}

	if cur.Len() > 0 {
		out = append(out, cur.String())
	}

	return out
}
