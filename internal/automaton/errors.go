package automaton

import "errors"

// Enumeration limits.
const (
	// DefaultMaxEnumeratedSequences bounds the state sequences
	// VerifyByEnumeration inspects before giving up.
	DefaultMaxEnumeratedSequences uint64 = 1 << 20
)

// Construction errors. New returns them wrapped with the offending state.
var (
	ErrNilArena          = errors.New("automaton: nil arena")
	ErrUnknownState      = errors.New("automaton: state not allocated by arena")
	ErrInvalidStart      = errors.New("automaton: start state is not a declared state")
	ErrInvalidAcceptSet  = errors.New("automaton: accepting state is not a declared state")
	ErrInvalidTransition = errors.New("automaton: transition references an undeclared state")
)

// ErrResourceExhausted is returned by VerifyByEnumeration when the search
// space exceeds the configured limit. It means the oracle cannot decide the
// word, not that the word is rejected.
var ErrResourceExhausted = errors.New("automaton: enumeration limit exceeded")
