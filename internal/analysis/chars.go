package analysis

import "unicode/utf8"

// CharAnalyzer reads every rune of the word as one symbol, so "abc" is the
// three-symbol word a,b,c. Invalid UTF-8 bytes become U+FFFD symbols.
type CharAnalyzer struct{}

// NewCharAnalyzer creates a new CharAnalyzer.
func NewCharAnalyzer() *CharAnalyzer {
	return &CharAnalyzer{}
}

// Analyze returns one token per rune.
func (a *CharAnalyzer) Analyze(word string) []Token {
	if word == "" {
		return nil
	}
	tokens := make([]Token, 0, utf8.RuneCountInString(word))
	pos := 0
	for i := 0; i < len(word); {
		r, size := utf8.DecodeRuneInString(word[i:])
		tokens = append(tokens, Token{
			Term:      string(r),
			Position:  pos,
			StartByte: i,
			EndByte:   i + size,
		})
		pos++
		i += size
	}
	return tokens
}
