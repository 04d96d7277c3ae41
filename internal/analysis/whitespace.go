package analysis

import "strings"

// WhitespaceAnalyzer splits a word on whitespace without any normalization.
type WhitespaceAnalyzer struct{}

// NewWhitespaceAnalyzer creates a new WhitespaceAnalyzer.
func NewWhitespaceAnalyzer() *WhitespaceAnalyzer {
	return &WhitespaceAnalyzer{}
}

// Analyze splits the input on whitespace, preserving case.
func (a *WhitespaceAnalyzer) Analyze(word string) []Token {
	fields := strings.Fields(word)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(fields))

	searchFrom := 0
	for pos, f := range fields {
		idx := strings.Index(word[searchFrom:], f)
		startByte := searchFrom + idx
		endByte := startByte + len(f)

		tokens = append(tokens, Token{
			Term:      f,
			Position:  pos,
			StartByte: startByte,
			EndByte:   endByte,
		})
		searchFrom = endByte
	}

	return tokens
}
