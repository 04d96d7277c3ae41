package analysis

// Token represents a single input symbol produced by an analyzer.
type Token struct {
	Term      string
	Position  int
	StartByte int
	EndByte   int
}

// Analyzer splits a word into an ordered stream of symbol tokens.
// Implementations MUST be stateless so a single instance can be shared
// by concurrent queries.
type Analyzer interface {
	// Analyze tokenizes the word and returns tokens with positions.
	// An empty word yields no tokens.
	Analyze(word string) []Token
}

// Terms returns the term of every token, in order.
func Terms(tokens []Token) []string {
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
