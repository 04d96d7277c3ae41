package automaton

// StateSet is an insertion-ordered set of states.
// The zero value is an empty set ready to use.
type StateSet struct {
	order []State
	index map[State]struct{}
}

// NewStateSet creates a set holding states, deduplicated, in order.
func NewStateSet(states ...State) *StateSet {
	set := &StateSet{}
	for _, s := range states {
		set.Add(s)
	}
	return set
}

// Add inserts s and reports whether it was absent.
func (set *StateSet) Add(s State) bool {
	if set.index == nil {
		set.index = make(map[State]struct{})
	}
	if _, ok := set.index[s]; ok {
		return false
	}
	set.index[s] = struct{}{}
	set.order = append(set.order, s)
	return true
}

// Contains reports whether s is in the set.
func (set *StateSet) Contains(s State) bool {
	_, ok := set.index[s]
	return ok
}

// Len returns the number of states in the set.
func (set *StateSet) Len() int {
	return len(set.order)
}

// States returns the members in insertion order.
func (set *StateSet) States() []State {
	return append([]State(nil), set.order...)
}

// Equal reports whether both sets hold the same states, ignoring order.
func (set *StateSet) Equal(other *StateSet) bool {
	if set.Len() != other.Len() {
		return false
	}
	for _, s := range set.order {
		if !other.Contains(s) {
			return false
		}
	}
	return true
}

// EpsilonClosure returns every state reachable from states through zero or
// more epsilon transitions. The inputs come first, in order, followed by the
// reached states in discovery order.
//
// The traversal keeps a visited set, so epsilon cycles terminate.
func (a *Automaton) EpsilonClosure(states ...State) *StateSet {
	closure := NewStateSet()
	a.closeInto(closure, states)
	return closure
}

// closeInto adds states and their epsilon-closure to closure. States already
// in closure are assumed closed and are not expanded again.
func (a *Automaton) closeInto(closure *StateSet, states []State) {
	queue := make([]State, 0, len(states))
	for _, s := range states {
		if closure.Add(s) {
			queue = append(queue, s)
		}
	}
	for head := 0; head < len(queue); head++ {
		for _, eps := range a.follow[queue[head]][Epsilon] {
			if closure.Add(eps) {
				queue = append(queue, eps)
			}
		}
	}
}
