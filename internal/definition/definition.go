// Package definition describes automata by state name so they can be built
// from CLI flags and JSON requests.
package definition

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"GoNFA/internal/automaton"
)

// DefaultEpsilonToken is the symbol label that denotes an epsilon transition
// in a Definition.
const DefaultEpsilonToken = "e"

var ErrMalformedTransition = errors.New("definition: malformed transition")

// TransitionDef is one transition by state name.
type TransitionDef struct {
	From   string `json:"from" yaml:"from" binding:"required"`
	Symbol string `json:"symbol" yaml:"symbol"`
	To     string `json:"to" yaml:"to" binding:"required"`
}

func (t TransitionDef) String() string {
	return t.From + "," + t.Symbol + "," + t.To
}

// Definition is an automaton described by state names.
type Definition struct {
	States      []string        `json:"states" yaml:"states" binding:"required,min=1"`
	Start       string          `json:"start" yaml:"start" binding:"required"`
	Accepting   []string        `json:"accepting" yaml:"accepting"`
	Transitions []TransitionDef `json:"transitions" yaml:"transitions" binding:"dive"`
}

// Build allocates one arena state per distinct name and constructs the
// automaton. Transitions labeled epsilonToken become epsilon transitions; an
// empty epsilonToken means DefaultEpsilonToken.
//
// Names used by Start, Accepting or Transitions but missing from States are
// still allocated, so New reports them as ErrInvalidStart,
// ErrInvalidAcceptSet or ErrInvalidTransition.
func (d Definition) Build(epsilonToken string, opts ...automaton.Option) (*automaton.Automaton, error) {
	if epsilonToken == "" {
		epsilonToken = DefaultEpsilonToken
	}

	arena := automaton.NewArena()
	byName := make(map[string]automaton.State)
	state := func(name string) automaton.State {
		if s, ok := byName[name]; ok {
			return s
		}
		s := arena.NewState(name)
		byName[name] = s
		return s
	}

	states := make([]automaton.State, 0, len(d.States))
	for _, name := range d.States {
		states = append(states, state(name))
	}
	start := state(d.Start)
	accepting := make([]automaton.State, 0, len(d.Accepting))
	for _, name := range d.Accepting {
		accepting = append(accepting, state(name))
	}

	transitions := make([]automaton.Transition, 0, len(d.Transitions))
	for _, t := range d.Transitions {
		sym := automaton.NewSymbol(t.Symbol)
		if t.Symbol == epsilonToken {
			sym = automaton.Epsilon
		}
		transitions = append(transitions, automaton.NewTransition(state(t.From), sym, state(t.To)))
	}

	return automaton.New(arena, states, start, accepting, transitions, opts...)
}

// FromAutomaton describes a so that Build(epsilonToken) recreates it.
// State names must be unique for the round trip to preserve identity.
func FromAutomaton(a *automaton.Automaton, epsilonToken string) Definition {
	if epsilonToken == "" {
		epsilonToken = DefaultEpsilonToken
	}
	d := Definition{
		States:    a.Names(a.States()),
		Start:     a.Name(a.Start()),
		Accepting: a.Names(a.Accepting()),
	}
	for _, t := range a.Transitions() {
		label := t.Symbol.Label()
		if t.Symbol.IsEpsilon() {
			label = epsilonToken
		}
		d.Transitions = append(d.Transitions, TransitionDef{
			From:   a.Name(t.From),
			Symbol: label,
			To:     a.Name(t.To),
		})
	}
	return d
}

// Load reads a Definition from a YAML file. JSON files load too, JSON being
// a subset of YAML.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read definition: %w", err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Definition{}, fmt.Errorf("parse definition %s: %w", path, err)
	}
	if len(d.States) == 0 {
		return Definition{}, fmt.Errorf("definition %s: no states", path)
	}
	return d, nil
}

// ParseTransition parses "from,symbol,to". The symbol may be empty
// ("q0,,q1") but both state names must be present.
func ParseTransition(s string) (TransitionDef, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return TransitionDef{}, fmt.Errorf("%w: %q: want from,symbol,to", ErrMalformedTransition, s)
	}
	from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[2])
	if from == "" || to == "" {
		return TransitionDef{}, fmt.Errorf("%w: %q: empty state name", ErrMalformedTransition, s)
	}
	return TransitionDef{From: from, Symbol: strings.TrimSpace(parts[1]), To: to}, nil
}

// ParseTransitions parses every entry with ParseTransition.
func ParseTransitions(specs []string) ([]TransitionDef, error) {
	out := make([]TransitionDef, 0, len(specs))
	for _, s := range specs {
		t, err := ParseTransition(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Sample returns the demonstration automaton: Q0 loops on A, reads B into
// Q1, then epsilon moves lead through Q2 to the accepting Q3.
func Sample() Definition {
	return Definition{
		States:    []string{"Q0", "Q1", "Q2", "Q3"},
		Start:     "Q0",
		Accepting: []string{"Q3"},
		Transitions: []TransitionDef{
			{From: "Q0", Symbol: "A", To: "Q0"},
			{From: "Q0", Symbol: "B", To: "Q1"},
			{From: "Q1", Symbol: DefaultEpsilonToken, To: "Q2"},
			{From: "Q2", Symbol: DefaultEpsilonToken, To: "Q3"},
		},
	}
}
