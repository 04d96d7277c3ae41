package automaton

import (
	"fmt"
	"strings"

	"GoNFA/internal/analysis"
)

// State identifies a state by its index in the Arena that created it.
// Two States are the same state iff their indices are equal.
type State uint32

// Arena allocates states and owns their names. States from different
// arenas must not be mixed in one automaton.
//
// An Arena is not safe for concurrent use; build it before constructing
// automata from it.
type Arena struct {
	names []string
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// NewState allocates a fresh state with the given display name.
// Names need not be unique; identity is the returned index.
func (a *Arena) NewState(name string) State {
	a.names = append(a.names, name)
	return State(len(a.names) - 1)
}

// Len returns the number of allocated states.
func (a *Arena) Len() int {
	return len(a.names)
}

// Name returns the display name of s, or "" if s was not allocated here.
func (a *Arena) Name(s State) string {
	if !a.owns(s) {
		return ""
	}
	return a.names[s]
}

func (a *Arena) owns(s State) bool {
	return int(s) < len(a.names)
}

// Symbol is an input symbol. The zero-width Epsilon symbol is a distinct
// value, so a real symbol labeled "e" never matches an epsilon transition.
type Symbol struct {
	label   string
	epsilon bool
}

// Epsilon labels transitions taken without reading input.
var Epsilon = Symbol{epsilon: true}

// NewSymbol returns the real (non-epsilon) symbol with the given label.
func NewSymbol(label string) Symbol {
	return Symbol{label: label}
}

// Label returns the symbol's label. Epsilon has an empty label.
func (s Symbol) Label() string {
	return s.label
}

// IsEpsilon reports whether s is the Epsilon symbol.
func (s Symbol) IsEpsilon() bool {
	return s.epsilon
}

func (s Symbol) String() string {
	if s.epsilon {
		return "ε"
	}
	return s.label
}

// Transition is the triple (From, Symbol, To). Transitions are plain values;
// an Automaton keeps its own copy of the list it was built from.
type Transition struct {
	From   State
	Symbol Symbol
	To     State
}

// NewTransition creates a transition reading sym.
func NewTransition(from State, sym Symbol, to State) Transition {
	return Transition{From: from, Symbol: sym, To: to}
}

// NewEpsilonTransition creates a transition taken without reading input.
func NewEpsilonTransition(from, to State) Transition {
	return Transition{From: from, Symbol: Epsilon, To: to}
}

// followTable maps a symbol to the successors reached on it, in the order the
// transitions were supplied.
type followTable map[Symbol][]State

func (t followTable) addFollowState(sym Symbol, target State) {
	t[sym] = append(t[sym], target)
}

// Automaton is a nondeterministic finite automaton with epsilon transitions.
//
// Properties:
//   - Immutable after New returns; queries never mutate it
//   - Safe for concurrent queries from multiple goroutines
//   - Every query terminates, including on epsilon cycles
type Automaton struct {
	names       []string
	states      []State
	declared    map[State]bool
	start       State
	accepting   []State
	isAccepting map[State]bool
	transitions []Transition
	follow      map[State]followTable
	epsilons    int

	analyzer     analysis.Analyzer
	maxSequences uint64
}

// Option configures an Automaton.
type Option func(*Automaton)

// WithAnalyzer sets the analyzer used to split words into symbols.
// The default splits on commas.
func WithAnalyzer(an analysis.Analyzer) Option {
	return func(a *Automaton) {
		if an != nil {
			a.analyzer = an
		}
	}
}

// WithEnumerationLimit bounds the number of state sequences
// VerifyByEnumeration may enumerate. Zero keeps DefaultMaxEnumeratedSequences.
func WithEnumerationLimit(limit uint64) Option {
	return func(a *Automaton) {
		if limit > 0 {
			a.maxSequences = limit
		}
	}
}

// New builds an automaton over the declared states.
//
// Transitions are wired into their source state's follow table in input
// order. Construction fails with ErrUnknownState if a declared state was not
// allocated by arena, ErrInvalidStart if start is not declared,
// ErrInvalidAcceptSet if an accepting state is not declared, and
// ErrInvalidTransition if a transition touches an undeclared state. Start and
// accepting states are checked before any transition, in that order.
// Duplicate states are collapsed.
func New(arena *Arena, states []State, start State, accepting []State, transitions []Transition, opts ...Option) (*Automaton, error) {
	if arena == nil {
		return nil, ErrNilArena
	}

	a := &Automaton{
		names:        append([]string(nil), arena.names...),
		declared:     make(map[State]bool, len(states)),
		isAccepting:  make(map[State]bool, len(accepting)),
		follow:       make(map[State]followTable, len(states)),
		analyzer:     analysis.NewCommaAnalyzer(),
		maxSequences: DefaultMaxEnumeratedSequences,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, s := range states {
		if !arena.owns(s) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownState, s)
		}
		if a.declared[s] {
			continue
		}
		a.declared[s] = true
		a.states = append(a.states, s)
	}

	if !a.declared[start] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStart, a.nameOf(start))
	}
	a.start = start

	for _, s := range accepting {
		if !a.declared[s] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAcceptSet, a.nameOf(s))
		}
		if a.isAccepting[s] {
			continue
		}
		a.isAccepting[s] = true
		a.accepting = append(a.accepting, s)
	}

	a.transitions = make([]Transition, 0, len(transitions))
	for i, t := range transitions {
		if !a.declared[t.From] || !a.declared[t.To] {
			return nil, fmt.Errorf("%w: #%d %s -%s-> %s", ErrInvalidTransition, i, a.nameOf(t.From), t.Symbol, a.nameOf(t.To))
		}
		table, ok := a.follow[t.From]
		if !ok {
			table = make(followTable)
			a.follow[t.From] = table
		}
		table.addFollowState(t.Symbol, t.To)
		a.transitions = append(a.transitions, t)
		if t.Symbol.IsEpsilon() {
			a.epsilons++
		}
	}

	return a, nil
}

// Start returns the start state.
func (a *Automaton) Start() State {
	return a.start
}

// States returns the declared states in declaration order.
func (a *Automaton) States() []State {
	return append([]State(nil), a.states...)
}

// Accepting returns the accepting states in declaration order.
func (a *Automaton) Accepting() []State {
	return append([]State(nil), a.accepting...)
}

// IsAccepting reports whether s is an accepting state.
func (a *Automaton) IsAccepting(s State) bool {
	return a.isAccepting[s]
}

// Transitions returns the transition relation in construction order.
func (a *Automaton) Transitions() []Transition {
	return append([]Transition(nil), a.transitions...)
}

// EpsilonCount returns the number of epsilon transitions.
func (a *Automaton) EpsilonCount() int {
	return a.epsilons
}

// Successors returns the states reached from s on sym, in construction
// order. It does not follow epsilon transitions unless sym is Epsilon.
func (a *Automaton) Successors(s State, sym Symbol) []State {
	return append([]State(nil), a.follow[s][sym]...)
}

// Name returns the display name of s.
func (a *Automaton) Name(s State) string {
	return a.nameOf(s)
}

// Names returns the display names of states, in order.
func (a *Automaton) Names(states []State) []string {
	if len(states) == 0 {
		return nil
	}
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = a.nameOf(s)
	}
	return names
}

// Alphabet returns the distinct non-epsilon symbols in construction order.
func (a *Automaton) Alphabet() []Symbol {
	seen := make(map[Symbol]bool)
	var out []Symbol
	for _, t := range a.transitions {
		if t.Symbol.IsEpsilon() || seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		out = append(out, t.Symbol)
	}
	return out
}

// Symbols splits word into symbols with the configured analyzer.
func (a *Automaton) Symbols(word string) []Symbol {
	tokens := a.analyzer.Analyze(word)
	if len(tokens) == 0 {
		return nil
	}
	syms := make([]Symbol, len(tokens))
	for i, tok := range tokens {
		syms[i] = NewSymbol(tok.Term)
	}
	return syms
}

func (a *Automaton) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "states: %v\n", a.Names(a.states))
	fmt.Fprintf(&b, "start: %s\n", a.nameOf(a.start))
	fmt.Fprintf(&b, "accepting: %v\n", a.Names(a.accepting))
	b.WriteString("transitions:\n")
	for _, t := range a.transitions {
		fmt.Fprintf(&b, "  %s -%s-> %s\n", a.nameOf(t.From), t.Symbol, a.nameOf(t.To))
	}
	return b.String()
}

func (a *Automaton) nameOf(s State) string {
	if int(s) < len(a.names) {
		return a.names[s]
	}
	return fmt.Sprintf("#%d", s)
}
