// Package abnormal flags recognized words that no reference vocabulary
// knows about, so a person can review them after a conversion.
package abnormal

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/scanbook/internal/alphabet"
)

// WordSet is a set of lowercase words.
type WordSet map[string]struct{}

// NewWordSet builds a set from words, lowercasing each one.
func NewWordSet(words ...string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts w in lowercase, NFC form. Blank words are ignored.
func (s WordSet) Add(w string) {
	w = strings.ToLower(norm.NFC.String(strings.TrimSpace(w)))
	if w != "" {
		s[w] = struct{}{}
	}
}

// Has reports whether w is in the set. A nil set contains nothing.
func (s WordSet) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Vocabulary groups the reference word lists. Ignore and Secondary are
// optional and behave as empty sets when nil.
type Vocabulary struct {
	Known     WordSet
	Ignore    WordSet
	Secondary WordSet
}

func (v Vocabulary) knows(w string) bool {
	return v.Known.Has(w) || v.Ignore.Has(w) || v.Secondary.Has(w)
}

// Collector scans page text and records abnormal words into an Index.
// It is not safe for concurrent use.
type Collector struct {
	vocab Vocabulary
	alpha *alphabet.Alphabet
	index Index
}

// NewCollector returns a Collector with an empty Index.
func NewCollector(vocab Vocabulary, alpha *alphabet.Alphabet) *Collector {
	return &Collector{
		vocab: vocab,
		alpha: alpha,
		index: make(Index),
	}
}

// Enabled reports whether a known-word vocabulary is available.
func (c *Collector) Enabled() bool {
	return len(c.vocab.Known) > 0
}

// Scan records every abnormal word of text against bookPage. Without a
// known-word vocabulary it does nothing.
func (c *Collector) Scan(text string, bookPage int) {
	if !c.Enabled() {
		return
	}
	for _, tok := range Tokenize(text, c.alpha) {
		if len([]rune(tok)) <= 1 || c.vocab.knows(tok) {
			continue
		}
		c.index.Add(tok, bookPage)
	}
}

// Index returns the accumulated index.
func (c *Collector) Index() Index {
	return c.index
}

// Tokenize normalizes text to NFC, lowercases it and splits it into runs of
// alphabet letters. Digits, punctuation and anything else separate tokens.
func Tokenize(text string, alpha *alphabet.Alphabet) []string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !alpha.IsLetter(r)
	})
}
