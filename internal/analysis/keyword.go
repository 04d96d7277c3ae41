package analysis

// KeywordAnalyzer treats the entire word as a single symbol.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer creates a new KeywordAnalyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// Analyze returns the entire input as a single token.
func (a *KeywordAnalyzer) Analyze(word string) []Token {
	if word == "" {
		return nil
	}
	return []Token{
		{
			Term:      word,
			Position:  0,
			StartByte: 0,
			EndByte:   len(word),
		},
	}
}
