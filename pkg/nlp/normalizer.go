// Package nlp holds the text normalizer and polarity scorer behind the
// sentiment engine.
package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Normalizer strips punctuation and stopwords from a comment and stems
// what is left. It is safe for concurrent use once built.
type Normalizer struct {
	language  string
	stopwords map[string]bool
}

// NewNormalizer builds a normalizer for language (only "english" ships a
// stopword list). extra adds stopwords on top of the built-in list.
func NewNormalizer(language string, extra ...string) *Normalizer {
	if language == "" {
		language = "english"
	}
	stop := make(map[string]bool, len(englishStopwords)+len(extra))
	if language == "english" {
		for _, w := range englishStopwords {
			stop[w] = true
		}
	}
	for _, w := range extra {
		stop[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return &Normalizer{language: language, stopwords: stop}
}

// Normalize returns the stemmed, stopword-free tokens of text joined by spaces.
func (n *Normalizer) Normalize(text string) string {
	tokens := Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.stopwords[tok] {
			continue
		}
		// Porter2. A few stems differ from the classic Porter algorithm.
		stemmed, err := snowball.Stem(tok, n.language, true)
		if err != nil || stemmed == "" {
			stemmed = tok
		}
		out = append(out, stemmed)
	}
	return strings.Join(out, " ")
}

// Tokenize splits text into lowercase word tokens. Letters, digits and
// underscores form words; everything else separates them.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
