// Package alphabet defines the character class of the target language.
//
// Correction patterns, word boundaries and abnormal-word tokens are all
// decided against the same letter set, so switching the book language means
// swapping the constants below.
package alphabet

import (
	"strings"
	"unicode"
)

const (
	// Lower is every lowercase letter of the target language.
	Lower = "abcdefghijklmnopqrstuvwxyzáéíóúüñ"
	// Upper is every uppercase letter of the target language.
	Upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZÁÉÍÓÚÜÑ"
)

// Alphabet answers membership questions for a fixed letter set.
type Alphabet struct {
	letters map[rune]bool
	upper   map[rune]bool
}

// New builds an Alphabet from its lowercase and uppercase letters.
func New(lower, upper string) *Alphabet {
	a := &Alphabet{
		letters: make(map[rune]bool, len(lower)+len(upper)),
		upper:   make(map[rune]bool, len(upper)),
	}
	for _, r := range lower {
		a.letters[r] = true
	}
	for _, r := range upper {
		a.letters[r] = true
		a.upper[r] = true
	}
	return a
}

// Default is the alphabet used by the service.
var Default = New(Lower, Upper)

// IsLetter reports whether r belongs to the alphabet.
func (a *Alphabet) IsLetter(r rune) bool {
	return a.letters[r]
}

// IsUpper reports whether r is one of the alphabet's uppercase letters.
func (a *Alphabet) IsUpper(r rune) bool {
	return a.upper[r]
}

// IsWord reports whether r counts as part of a word when checking
// boundaries: an alphabet letter, a digit or an underscore.
func (a *Alphabet) IsWord(r rune) bool {
	return a.letters[r] || unicode.IsDigit(r) || r == '_'
}

// Contains reports whether every rune of s is an alphabet letter.
// The empty string is not considered alphabetic.
func (a *Alphabet) Contains(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !a.letters[r] }) < 0
}
