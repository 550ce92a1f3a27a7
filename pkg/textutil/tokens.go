// Package textutil holds the small text helpers shared by the lexical
// classifier and the knowledge index.
package textutil

import (
	"strings"
	"unicode"
)

// stopwords are dropped from token streams; they carry no signal for
// intent matching or retrieval.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "for": {}, "from": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "please": {},
	"the": {}, "to": {}, "we": {}, "what": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases s and splits it into letter/digit runs, dropping
// stopwords and single characters.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Counts returns the term frequencies of tokens.
func Counts(tokens []string) map[string]int {
	m := make(map[string]int, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}
