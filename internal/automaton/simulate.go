package automaton

// Step records the states occupied after reading one symbol.
type Step struct {
	Symbol Symbol
	States []State
}

// Trace is the diagnostic record of a simulation. Only Accepted is part of
// the acceptance decision; the other fields describe how it was reached.
type Trace struct {
	// Accepted is true if Final contains an accepting state.
	Accepted bool

	// Initial is the epsilon-closure of the start state.
	Initial []State

	// Steps holds one entry per consumed symbol.
	Steps []Step

	// Final is the set of states occupied when simulation stopped.
	Final []State

	// Consumed is the number of symbols read. It is less than the word
	// length iff DeadEnd is set.
	Consumed int

	// DeadEnd is set when a symbol had no successor from any current state.
	// Simulation then stops and decides on the last non-empty set.
	DeadEnd bool
}

// Simulate reports whether the automaton accepts word. The word is split
// into symbols by the configured analyzer (comma-separated by default).
//
// Unknown symbols are not errors: they have no successors and end the
// simulation early (see Trace.DeadEnd).
func (a *Automaton) Simulate(word string) bool {
	return a.Run(a.Symbols(word)).Accepted
}

// SimulateTrace is Simulate returning the full trace.
func (a *Automaton) SimulateTrace(word string) Trace {
	return a.Run(a.Symbols(word))
}

// Run executes the subset simulation over symbols.
//
// The current set starts as the epsilon-closure of the start state. For each
// symbol, the next set is every direct successor of a current state on that
// symbol, plus their epsilon-closures. If the next set is empty the run
// stops and keeps the current set. The word is accepted iff the final set
// contains an accepting state.
//
// Cost is O(len(symbols) * |states| * out-degree).
func (a *Automaton) Run(symbols []Symbol) Trace {
	current := a.EpsilonClosure(a.start)
	trace := Trace{Initial: current.States()}

	for _, sym := range symbols {
		next := a.step(current, sym)
		if next.Len() == 0 {
			trace.DeadEnd = true
			break
		}
		current = next
		trace.Consumed++
		trace.Steps = append(trace.Steps, Step{Symbol: sym, States: current.States()})
	}

	trace.Final = current.States()
	trace.Accepted = a.anyAccepting(current)
	return trace
}

// step returns the epsilon-closed successor set of current on sym.
// Epsilon is never read from input.
func (a *Automaton) step(current *StateSet, sym Symbol) *StateSet {
	next := NewStateSet()
	if sym.IsEpsilon() {
		return next
	}
	for _, s := range current.order {
		if direct := a.follow[s][sym]; len(direct) > 0 {
			a.closeInto(next, direct)
		}
	}
	return next
}

func (a *Automaton) anyAccepting(set *StateSet) bool {
	for _, s := range set.order {
		if a.isAccepting[s] {
			return true
		}
	}
	return false
}
