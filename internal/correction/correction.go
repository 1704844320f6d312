// Package correction rewrites recognized text using a dictionary of known
// OCR mistakes.
package correction

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/scanbook/internal/alphabet"
)

// Entry maps a wrong surface form to its correct form.
type Entry struct {
	Wrong string
	Right string
}

// Dictionary is an ordered list of corrections. Entries are applied in
// order and each one sees the output of the previous, so a replacement that
// produces a later entry's key will be rewritten again.
type Dictionary []Entry

// Set adds or replaces the correction for wrong. A replaced entry keeps its
// original position.
func (d *Dictionary) Set(wrong, right string) {
	for i := range *d {
		if (*d)[i].Wrong == wrong {
			(*d)[i].Right = right
			return
		}
	}
	*d = append(*d, Entry{Wrong: wrong, Right: right})
}

type rule struct {
	pattern []rune // case-folded
	right   string
	complex bool
}

// Corrector applies a dictionary to page text. It is safe for concurrent
// use once built.
type Corrector struct {
	alpha *alphabet.Alphabet
	rules []rule
}

// New prepares a Corrector for dict. Entries with an empty key are ignored.
func New(dict Dictionary, alpha *alphabet.Alphabet) *Corrector {
	c := &Corrector{alpha: alpha, rules: make([]rule, 0, len(dict))}
	for _, e := range dict {
		if e.Wrong == "" {
			continue
		}
		c.rules = append(c.rules, rule{
			pattern: fold([]rune(e.Wrong)),
			right:   e.Right,
			// Patterns with punctuation or other non-letters already carry
			// their own structure; anchoring them on word boundaries would
			// stop them from matching.
			complex: !alpha.Contains(e.Wrong),
		})
	}
	return c
}

// Len returns the number of active rules.
func (c *Corrector) Len() int {
	return len(c.rules)
}

// Correct applies every rule to text in dictionary order.
func (c *Corrector) Correct(text string) string {
	for _, r := range c.rules {
		text = c.apply(text, r)
	}
	return text
}

// Apply is a convenience wrapper around New(dict, alpha).Correct(text).
func Apply(text string, dict Dictionary, alpha *alphabet.Alphabet) string {
	return New(dict, alpha).Correct(text)
}

// apply replaces every non-overlapping occurrence of r in a single
// left-to-right pass.
func (c *Corrector) apply(text string, r rule) string {
	src := []rune(text)
	folded := fold(slices.Clone(src))
	n := len(r.pattern)
	if n == 0 || n > len(src) {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	replaced := false

	i := 0
	for i < len(src) {
		if i+n <= len(src) && slices.Equal(folded[i:i+n], r.pattern) && (r.complex || c.bounded(src, i, i+n)) {
			sb.WriteString(matchCase(src[i], r.right, c.alpha))
			i += n
			replaced = true
			continue
		}
		sb.WriteRune(src[i])
		i++
	}

	if !replaced {
		return text
	}
	return sb.String()
}

// bounded reports whether src[start:end] sits between word boundaries.
func (c *Corrector) bounded(src []rune, start, end int) bool {
	if start > 0 && c.alpha.IsWord(src[start-1]) {
		return false
	}
	if end < len(src) && c.alpha.IsWord(src[end]) {
		return false
	}
	return true
}

// matchCase capitalizes right when the matched text starts with an
// uppercase letter. The rest of right is left as stored.
func matchCase(first rune, right string, alpha *alphabet.Alphabet) string {
	if right == "" || !alpha.IsUpper(first) {
		return right
	}
	r, size := utf8.DecodeRuneInString(right)
	return string(unicode.ToUpper(r)) + right[size:]
}

func fold(rs []rune) []rune {
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}
