package analysis

import "strings"

// DefaultDelimiter separates symbols in the canonical word format ("A,B").
const DefaultDelimiter = ","

// DelimitedAnalyzer splits a word on a fixed delimiter.
//
// Interior empty tokens are kept: "A,,B" has three symbols and the middle one
// is the empty symbol, which no transition reads. Trailing empty tokens are
// dropped, so "A,B," has two symbols. The empty word has none.
type DelimitedAnalyzer struct {
	delimiter string
}

// NewDelimitedAnalyzer creates an analyzer splitting on delimiter.
// An empty delimiter falls back to DefaultDelimiter.
func NewDelimitedAnalyzer(delimiter string) *DelimitedAnalyzer {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &DelimitedAnalyzer{delimiter: delimiter}
}

// NewCommaAnalyzer creates the analyzer for the canonical comma-separated format.
func NewCommaAnalyzer() *DelimitedAnalyzer {
	return NewDelimitedAnalyzer(DefaultDelimiter)
}

// Analyze splits the word on the delimiter, preserving case and whitespace.
func (a *DelimitedAnalyzer) Analyze(word string) []Token {
	if word == "" {
		return nil
	}

	parts := strings.Split(word, a.delimiter)
	last := len(parts)
	for last > 0 && parts[last-1] == "" {
		last--
	}
	parts = parts[:last]
	if len(parts) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(parts))
	offset := 0
	for pos, p := range parts {
		tokens = append(tokens, Token{
			Term:      p,
			Position:  pos,
			StartByte: offset,
			EndByte:   offset + len(p),
		})
		offset += len(p) + len(a.delimiter)
	}
	return tokens
}
