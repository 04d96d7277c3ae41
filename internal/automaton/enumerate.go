package automaton

import (
	"context"
	"fmt"
	"math/bits"
)

// cancelCheckInterval is how many sequences are enumerated between context
// checks.
const cancelCheckInterval = 1 << 12

// VerifyByEnumeration decides word by brute force: it enumerates every
// sequence of declared states whose length lies between len(word)+1 and
// len(word)+1+E, where E is the number of epsilon transitions, and accepts
// iff one of them starts at the start state, ends in an accepting state and
// can be walked pairwise against the transition list while consuming the
// whole word.
//
// The cost is exponential in the word length and state count. It exists as
// a reference oracle for Simulate. When the number of sequences would exceed
// the enumeration limit it returns ErrResourceExhausted without enumerating.
//
// Unlike Simulate, the oracle has no dead-end rule: a word with an unreadable
// symbol is rejected here even where Simulate accepts on the states it
// reached before the dead end.
func (a *Automaton) VerifyByEnumeration(word string) (bool, error) {
	return a.VerifySymbols(a.Symbols(word))
}

// VerifySymbols is VerifyByEnumeration over already-split symbols.
func (a *Automaton) VerifySymbols(word []Symbol) (bool, error) {
	return a.VerifySymbolsContext(context.Background(), word)
}

// VerifyContext is VerifyByEnumeration that gives up with ctx.Err() once ctx
// is done. The context is polled during enumeration, not only between words.
func (a *Automaton) VerifyContext(ctx context.Context, word string) (bool, error) {
	return a.VerifySymbolsContext(ctx, a.Symbols(word))
}

// VerifySymbolsContext is VerifyContext over already-split symbols.
func (a *Automaton) VerifySymbolsContext(ctx context.Context, word []Symbol) (bool, error) {
	minLen := len(word) + 1
	maxLen := minLen + a.epsilons

	total, ok := a.SequenceCount(len(word))
	if !ok || total > a.maxSequences {
		return false, fmt.Errorf("%w: %d states, lengths %d..%d exceed %d sequences",
			ErrResourceExhausted, len(a.states), minLen, maxLen, a.maxSequences)
	}

	for length := minLen; length <= maxLen; length++ {
		accepted, err := a.anySequenceAccepts(ctx, word, length)
		if err != nil || accepted {
			return accepted, err
		}
	}
	return false, nil
}

// SequenceCount returns how many state sequences VerifySymbols enumerates for
// a word of n symbols. ok is false if the count overflows uint64.
func (a *Automaton) SequenceCount(n int) (count uint64, ok bool) {
	base := uint64(len(a.states))
	for length := n + 1; length <= n+1+a.epsilons; length++ {
		c, ok := pow(base, length)
		if !ok {
			return 0, false
		}
		var carry uint64
		count, carry = bits.Add64(count, c, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return count, true
}

// anySequenceAccepts enumerates all |states|^length sequences by counting in
// base |states|, least significant position first.
func (a *Automaton) anySequenceAccepts(ctx context.Context, word []Symbol, length int) (bool, error) {
	base := len(a.states)
	digits := make([]int, length)
	seq := make([]State, length)

	for n := 1; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		for i, d := range digits {
			seq[i] = a.states[d]
		}
		if seq[0] == a.start && a.isAccepting[seq[length-1]] && a.walk(word, seq) {
			return true, nil
		}

		i := 0
		for ; i < length; i++ {
			digits[i]++
			if digits[i] < base {
				break
			}
			digits[i] = 0
		}
		if i == length {
			return false, nil
		}
	}
}

// walk checks seq hop by hop against the raw transition list. A hop p->q
// matches a transition p -sym-> q that reads the next unread symbol, or an
// epsilon transition p -> q that reads nothing. Once the word is consumed
// only epsilon hops match.
//
// Both kinds of match may apply to the same hop, so walk tracks every
// reachable read position rather than committing to one.
func (a *Automaton) walk(word []Symbol, seq []State) bool {
	n := len(word)
	positions := make([]bool, n+1)
	positions[0] = true
	next := make([]bool, n+1)

	for i := 0; i+1 < len(seq); i++ {
		from, to := seq[i], seq[i+1]
		clear(next)
		matched := false

		for _, t := range a.transitions {
			if t.From != from || t.To != to {
				continue
			}
			for j, ok := range positions {
				if !ok {
					continue
				}
				switch {
				case t.Symbol.IsEpsilon():
					next[j] = true
					matched = true
				case j < n && t.Symbol == word[j]:
					next[j+1] = true
					matched = true
				}
			}
		}
		if !matched {
			return false
		}
		positions, next = next, positions
	}
	return positions[n]
}

// pow returns base^exp and whether it fits in uint64.
func pow(base uint64, exp int) (uint64, bool) {
	result := uint64(1)
	for i := 0; i < exp; i++ {
		hi, lo := bits.Mul64(result, base)
		if hi != 0 {
			return 0, false
		}
		result = lo
	}
	return result, true
}
