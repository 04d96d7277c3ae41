package automaton

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoNFA/internal/analysis"
)

// sampleStates holds the Q0..Q3 automaton used throughout these tests:
//
//	Q0 -A-> Q0, Q0 -B-> Q1, Q1 -ε-> Q2, Q2 -ε-> Q3, accepting {Q3}
type sampleStates struct {
	q0, q1, q2, q3 State
}

func newSample(t testing.TB, opts ...Option) (*Automaton, sampleStates) {
	t.Helper()
	arena := NewArena()
	s := sampleStates{
		q0: arena.NewState("Q0"),
		q1: arena.NewState("Q1"),
		q2: arena.NewState("Q2"),
		q3: arena.NewState("Q3"),
	}
	a, err := New(arena,
		[]State{s.q0, s.q1, s.q2, s.q3},
		s.q0,
		[]State{s.q3},
		[]Transition{
			NewTransition(s.q0, NewSymbol("A"), s.q0),
			NewTransition(s.q0, NewSymbol("B"), s.q1),
			NewEpsilonTransition(s.q1, s.q2),
			NewEpsilonTransition(s.q2, s.q3),
		},
		opts...,
	)
	require.NoError(t, err)
	return a, s
}

// newEndsWithAB accepts words over {a,b} ending in "a,b". No epsilon transitions.
func newEndsWithAB(t testing.TB) *Automaton {
	t.Helper()
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")
	a, b := NewSymbol("a"), NewSymbol("b")
	aut, err := New(arena, []State{q0, q1, q2}, q0, []State{q2}, []Transition{
		NewTransition(q0, a, q0),
		NewTransition(q0, b, q0),
		NewTransition(q0, a, q1),
		NewTransition(q1, b, q2),
	})
	require.NoError(t, err)
	return aut
}

// newAStarBStar accepts a*b* using epsilon transitions between the phases.
func newAStarBStar(t testing.TB) *Automaton {
	t.Helper()
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")
	aut, err := New(arena, []State{q0, q1, q2}, q0, []State{q2}, []Transition{
		NewEpsilonTransition(q0, q1),
		NewTransition(q1, NewSymbol("a"), q1),
		NewEpsilonTransition(q1, q2),
		NewTransition(q2, NewSymbol("b"), q2),
	})
	require.NoError(t, err)
	return aut
}

// --- Construction ---

func TestNew_WiresTransitionsInOrder(t *testing.T) {
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")
	x := NewSymbol("x")

	a, err := New(arena, []State{q0, q1, q2}, q0, nil, []Transition{
		NewTransition(q0, x, q2),
		NewTransition(q0, x, q1),
		NewTransition(q0, x, q0),
	})
	require.NoError(t, err)

	assert.Equal(t, []State{q2, q1, q0}, a.Successors(q0, x))
	assert.Empty(t, a.Successors(q1, x))
	assert.Empty(t, a.Successors(q0, NewSymbol("y")))
}

func TestNew_InvalidStart(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	_, err := New(arena, []State{q0}, q1, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStart), "got %v", err)
	assert.Contains(t, err.Error(), "q1")
}

func TestNew_InvalidAcceptSet(t *testing.T) {
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")

	_, err := New(arena, []State{q0, q1}, q0, []State{q1, q2}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAcceptSet)
	assert.Contains(t, err.Error(), "q2")
}

func TestNew_InvalidTransition(t *testing.T) {
	arena := NewArena()
	q0, q1, q4 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q4")

	_, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewTransition(q0, NewSymbol("a"), q1),
		NewTransition(q1, NewSymbol("b"), q4),
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNew_StartAndAcceptCheckedBeforeTransitions(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("Q0"), arena.NewState("Q1")
	a := NewSymbol("A")
	transitions := []Transition{NewTransition(q0, a, q1)}

	tests := []struct {
		name      string
		states    []State
		start     State
		accepting []State
		want      error
	}{
		{"undeclared start with transitions", []State{q1}, q0, []State{q1}, ErrInvalidStart},
		{"undeclared accepting with transitions", []State{q0}, q0, []State{q1}, ErrInvalidAcceptSet},
		{"start wins over accepting", []State{}, q0, []State{q1}, ErrInvalidStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(arena, tt.states, tt.start, tt.accepting, transitions)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestNew_UnknownState(t *testing.T) {
	arena := NewArena()
	q0 := arena.NewState("q0")

	_, err := New(arena, []State{q0, State(7)}, q0, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestNew_NilArena(t *testing.T) {
	_, err := New(nil, nil, 0, nil, nil)
	assert.ErrorIs(t, err, ErrNilArena)
}

func TestNew_CollapsesDuplicates(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	a, err := New(arena, []State{q0, q1, q0}, q0, []State{q1, q1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []State{q0, q1}, a.States())
	assert.Equal(t, []State{q1}, a.Accepting())
}

func TestNew_ArenaGrowthAfterConstruction(t *testing.T) {
	a, s := newSample(t)
	// Names are captured at construction; later arena use does not leak in.
	assert.Equal(t, "Q3", a.Name(s.q3))
	assert.Equal(t, "#99", a.Name(State(99)))
}

func TestAutomaton_Introspection(t *testing.T) {
	a, s := newSample(t)

	assert.Equal(t, s.q0, a.Start())
	assert.True(t, a.IsAccepting(s.q3))
	assert.False(t, a.IsAccepting(s.q2))
	assert.Equal(t, 2, a.EpsilonCount())
	assert.Len(t, a.Transitions(), 4)
	assert.Equal(t, []Symbol{NewSymbol("A"), NewSymbol("B")}, a.Alphabet())

	assert.Equal(t, []string{"Q0", "Q1", "Q2", "Q3"}, a.Names(a.States()))
	assert.Nil(t, a.Names(nil))

	out := a.String()
	assert.Contains(t, out, "start: Q0")
	assert.Contains(t, out, "Q1 -ε-> Q2")
}

func TestSymbol_EpsilonIsDistinct(t *testing.T) {
	assert.NotEqual(t, Epsilon, NewSymbol("e"))
	assert.NotEqual(t, Epsilon, NewSymbol(""))
	assert.True(t, Epsilon.IsEpsilon())
	assert.False(t, NewSymbol("e").IsEpsilon())
	assert.Equal(t, "ε", Epsilon.String())
	assert.Equal(t, "e", NewSymbol("e").String())
}

// --- Simulation ---

func TestSimulate_SampleScenario(t *testing.T) {
	a, _ := newSample(t)

	tests := []struct {
		word string
		want bool
	}{
		{"A,B", true},
		{"A,A,B", true},
		{"B", true},
		{"B,A", true}, // dead end after B keeps {Q1,Q2,Q3}
		{"", false},
		{"A", false},
		{"A,A", false},
		{"C", false}, // dead end at the start keeps {Q0}
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := a.Simulate(tt.word); got != tt.want {
				t.Errorf("Simulate(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestSimulateTrace_AB(t *testing.T) {
	a, s := newSample(t)

	trace := a.SimulateTrace("A,B")
	assert.True(t, trace.Accepted)
	assert.False(t, trace.DeadEnd)
	assert.Equal(t, 2, trace.Consumed)
	assert.Equal(t, []State{s.q0}, trace.Initial)
	require.Len(t, trace.Steps, 2)
	assert.Equal(t, NewSymbol("A"), trace.Steps[0].Symbol)
	assert.Equal(t, []State{s.q0}, trace.Steps[0].States)
	assert.Equal(t, []State{s.q1, s.q2, s.q3}, trace.Steps[1].States)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, a.Names(trace.Final))
}

func TestSimulateTrace_DeadEndShortCircuit(t *testing.T) {
	a, s := newSample(t)

	trace := a.SimulateTrace("B,A,A,B")
	assert.True(t, trace.DeadEnd)
	assert.Equal(t, 1, trace.Consumed, "symbols after the dead end are not consumed")
	assert.Equal(t, []State{s.q1, s.q2, s.q3}, trace.Final)
	assert.True(t, trace.Accepted)
}

func TestSimulate_EmptyWord(t *testing.T) {
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")
	states := []State{q0, q1, q2}

	tests := []struct {
		name        string
		accepting   []State
		transitions []Transition
		want        bool
	}{
		{"start accepting", []State{q0}, nil, true},
		{"no accepting reachable", []State{q2}, []Transition{NewTransition(q0, NewSymbol("a"), q2)}, false},
		{"accepting via epsilon chain", []State{q2}, []Transition{
			NewEpsilonTransition(q0, q1),
			NewEpsilonTransition(q1, q2),
		}, true},
		{"accepting needs a symbol", []State{q2}, []Transition{
			NewEpsilonTransition(q0, q1),
			NewTransition(q1, NewSymbol("a"), q2),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(arena, states, q0, tt.accepting, tt.transitions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Simulate(""))

			got, err := a.VerifyByEnumeration("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "oracle")
		})
	}
}

func TestSimulate_EpsilonCycleTerminates(t *testing.T) {
	arena := NewArena()
	q0, q1, q2, q3 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2"), arena.NewState("q3")

	a, err := New(arena, []State{q0, q1, q2, q3}, q0, []State{q3}, []Transition{
		NewEpsilonTransition(q0, q1),
		NewEpsilonTransition(q1, q2),
		NewEpsilonTransition(q2, q0),
		NewEpsilonTransition(q1, q1),
		NewTransition(q2, NewSymbol("x"), q3),
		NewEpsilonTransition(q3, q3),
	})
	require.NoError(t, err)

	assert.False(t, a.Simulate(""))
	assert.True(t, a.Simulate("x"))
	assert.True(t, a.Simulate("x,x")) // dead end after x keeps {q3}

	trace := a.SimulateTrace("")
	assert.ElementsMatch(t, []State{q0, q1, q2}, trace.Initial)
}

func TestSimulate_RealSymbolNamedE(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	a, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewTransition(q0, NewSymbol("e"), q1),
	})
	require.NoError(t, err)

	assert.False(t, a.Simulate(""), "a real 'e' symbol is not an epsilon move")
	assert.True(t, a.Simulate("e"))
}

func TestSimulate_EpsilonNeverReadFromInput(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	a, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewEpsilonTransition(q0, q1),
	})
	require.NoError(t, err)

	trace := a.Run([]Symbol{Epsilon})
	assert.True(t, trace.DeadEnd)
	assert.Equal(t, 0, trace.Consumed)
}

func TestSimulate_WithAnalyzer(t *testing.T) {
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")

	a, err := New(arena, []State{q0, q1, q2}, q0, []State{q2}, []Transition{
		NewTransition(q0, NewSymbol("h"), q1),
		NewTransition(q1, NewSymbol("i"), q2),
	}, WithAnalyzer(analysis.NewCharAnalyzer()))
	require.NoError(t, err)

	assert.True(t, a.Simulate("hi"))
	assert.False(t, a.Simulate("h,i"))
}

func TestSimulate_UnknownSymbolsReject(t *testing.T) {
	a := newEndsWithAB(t)

	for _, word := range []string{"z", "a,z", "a,,b", " a,b"} {
		assert.False(t, a.Simulate(word), "Simulate(%q)", word)
	}
	assert.True(t, a.Simulate("b,a,b"))
	assert.True(t, a.Simulate("a,b,"), "trailing delimiter is ignored")
}

// --- Epsilon closure ---

func TestEpsilonClosure_Idempotent(t *testing.T) {
	a, s := newSample(t)

	tests := [][]State{
		{s.q0},
		{s.q1},
		{s.q2, s.q0},
		{s.q1, s.q2, s.q3},
	}
	for _, in := range tests {
		once := a.EpsilonClosure(in...)
		twice := a.EpsilonClosure(once.States()...)
		assert.True(t, once.Equal(twice), "closure of %v not idempotent", a.Names(in))
	}

	assert.Equal(t, []State{s.q1, s.q2, s.q3}, a.EpsilonClosure(s.q1).States())
}

func TestEpsilonClosure_Empty(t *testing.T) {
	a, _ := newSample(t)
	assert.Equal(t, 0, a.EpsilonClosure().Len())
}

func TestStateSet(t *testing.T) {
	var set StateSet
	assert.False(t, set.Contains(3))
	assert.True(t, set.Add(3))
	assert.False(t, set.Add(3))
	assert.True(t, set.Add(1))
	assert.Equal(t, []State{3, 1}, set.States())
	assert.True(t, set.Equal(NewStateSet(1, 3)))
	assert.False(t, set.Equal(NewStateSet(1)))
	assert.False(t, set.Equal(NewStateSet(1, 2)))
}

// --- Enumeration oracle ---

func TestVerifyByEnumeration_SampleScenario(t *testing.T) {
	a, _ := newSample(t)

	tests := []struct {
		word string
		want bool
	}{
		{"A,B", true},
		{"A,A,B", true},
		{"B", true},
		{"B,A", false}, // no dead-end rule in the oracle
		{"", false},
		{"A", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, err := a.VerifyByEnumeration(tt.word)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyByEnumeration_SequenceCount(t *testing.T) {
	a, _ := newSample(t)

	count, ok := a.SequenceCount(2)
	require.True(t, ok)
	assert.Equal(t, uint64(64+256+1024), count)

	_, ok = a.SequenceCount(40)
	assert.False(t, ok, "4^41 overflows uint64")
}

func TestVerifyByEnumeration_ResourceExhausted(t *testing.T) {
	a, _ := newSample(t, WithEnumerationLimit(100))

	ok, err := a.VerifyByEnumeration("A,B")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrResourceExhausted)

	ok, err = a.VerifyByEnumeration("")
	require.NoError(t, err, "4+16+64 sequences fit the limit")
	assert.False(t, ok)
}

func TestVerifyByEnumeration_Overflow(t *testing.T) {
	a, _ := newSample(t)

	words := make([]Symbol, 64)
	for i := range words {
		words[i] = NewSymbol("A")
	}
	_, err := a.VerifySymbols(words)
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestVerifyByEnumeration_ConsumesWholeWord(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	// Only epsilon hops lead to the accepting state; they cannot consume "a".
	a, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewEpsilonTransition(q0, q1),
	})
	require.NoError(t, err)

	got, err := a.VerifyByEnumeration("a")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestVerifyByEnumeration_HopMatchesSymbolOrEpsilon(t *testing.T) {
	arena := NewArena()
	q0, q1, q2 := arena.NewState("q0"), arena.NewState("q1"), arena.NewState("q2")

	// q0 -> q1 is both an epsilon and an "a" transition. Accepting "a"
	// requires reading it on the second hop, so the first hop must be
	// taken as epsilon.
	a, err := New(arena, []State{q0, q1, q2}, q0, []State{q2}, []Transition{
		NewTransition(q0, NewSymbol("a"), q1),
		NewEpsilonTransition(q0, q1),
		NewTransition(q1, NewSymbol("a"), q2),
	})
	require.NoError(t, err)

	for _, word := range []string{"a", "a,a"} {
		got, err := a.VerifyByEnumeration(word)
		require.NoError(t, err)
		assert.True(t, got, "oracle %q", word)
		assert.True(t, a.Simulate(word), "simulate %q", word)
	}
}

// With the epsilon transition listed first, committing to the first matching
// transition on each hop would never read "a". Tracking every read position
// accepts it, in agreement with Simulate.
func TestVerifyByEnumeration_EpsilonListedBeforeSymbol(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	a, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewEpsilonTransition(q0, q1),
		NewTransition(q0, NewSymbol("a"), q1),
	})
	require.NoError(t, err)

	tests := []struct {
		word string
		want bool
	}{
		{"a", true},
		{"", true},
	}
	for _, tt := range tests {
		got, err := a.VerifyByEnumeration(tt.word)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "oracle %q", tt.word)
		assert.Equal(t, tt.want, a.Simulate(tt.word), "simulate %q", tt.word)
	}
}

func TestVerifyContext_CanceledDuringEnumeration(t *testing.T) {
	a, _ := newSample(t)
	word := "A,A,A,A,A" // rejected, so all 4^6+4^7+4^8 sequences are visited

	got, err := a.VerifyContext(context.Background(), word)
	require.NoError(t, err)
	assert.False(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.VerifyContext(ctx, word)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyContext_LimitCheckedFirst(t *testing.T) {
	a, _ := newSample(t, WithEnumerationLimit(100))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.VerifyContext(ctx, "A,B")
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

// The oracle only allows E epsilon hops in total, so a word whose accepting
// path repeats an epsilon transition is out of its reach.
func TestVerifyByEnumeration_EpsilonBudget(t *testing.T) {
	arena := NewArena()
	q0, q1 := arena.NewState("q0"), arena.NewState("q1")

	a, err := New(arena, []State{q0, q1}, q0, []State{q1}, []Transition{
		NewEpsilonTransition(q0, q1),
		NewTransition(q1, NewSymbol("A"), q0),
	})
	require.NoError(t, err)

	trace := a.SimulateTrace("A")
	assert.True(t, trace.Accepted)
	assert.False(t, trace.DeadEnd)

	got, err := a.VerifyByEnumeration("A")
	require.NoError(t, err)
	assert.False(t, got)
}

// --- Agreement ---

func TestAgreement_AllShortWords(t *testing.T) {
	automata := map[string]*Automaton{
		"ends-with-ab": newEndsWithAB(t),
		"a*b*":         newAStarBStar(t),
	}
	sample, _ := newSample(t)
	automata["sample"] = sample

	for name, a := range automata {
		t.Run(name, func(t *testing.T) {
			alphabet := []Symbol{NewSymbol("a"), NewSymbol("b"), NewSymbol("A"), NewSymbol("B")}
			forEachWord(alphabet, 3, func(word []Symbol) {
				trace := a.Run(word)
				if trace.DeadEnd {
					return
				}
				got, err := a.VerifySymbols(word)
				require.NoError(t, err)
				if got != trace.Accepted {
					t.Errorf("word %v: simulate=%v oracle=%v", word, trace.Accepted, got)
				}
			})
		})
	}
}

func TestAgreement_DeadEndDivergence(t *testing.T) {
	a, _ := newSample(t)

	trace := a.SimulateTrace("B,A")
	require.True(t, trace.DeadEnd)
	assert.True(t, trace.Accepted)

	got, err := a.VerifyByEnumeration("B,A")
	require.NoError(t, err)
	assert.False(t, got)
}

// forEachWord calls fn with every word over alphabet of length 0..maxLen.
func forEachWord(alphabet []Symbol, maxLen int, fn func([]Symbol)) {
	var rec func(prefix []Symbol)
	rec = func(prefix []Symbol) {
		fn(append([]Symbol(nil), prefix...))
		if len(prefix) == maxLen {
			return
		}
		for _, sym := range alphabet {
			rec(append(prefix, sym))
		}
	}
	rec(nil)
}
