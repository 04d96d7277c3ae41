package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"GoNFA/internal/automaton"
	"GoNFA/internal/definition"
)

// MustBuild builds def with the default epsilon token and fails the test on
// error.
func MustBuild(tb testing.TB, def definition.Definition, opts ...automaton.Option) *automaton.Automaton {
	tb.Helper()
	a, err := def.Build("", opts...)
	if err != nil {
		tb.Fatalf("Build(%v): %v", def.States, err)
	}
	return a
}

// EndsWithAB accepts comma-separated words over {a,b} ending in "a,b".
func EndsWithAB() definition.Definition {
	return definition.Definition{
		States:    []string{"q0", "q1", "q2"},
		Start:     "q0",
		Accepting: []string{"q2"},
		Transitions: []definition.TransitionDef{
			{From: "q0", Symbol: "a", To: "q0"},
			{From: "q0", Symbol: "b", To: "q0"},
			{From: "q0", Symbol: "a", To: "q1"},
			{From: "q1", Symbol: "b", To: "q2"},
		},
	}
}

// EpsilonCycle has an epsilon loop q0 <-> q1 and one real move q1 -a-> q2.
func EpsilonCycle() definition.Definition {
	return definition.Definition{
		States:    []string{"q0", "q1", "q2"},
		Start:     "q0",
		Accepting: []string{"q2"},
		Transitions: []definition.TransitionDef{
			{From: "q0", Symbol: definition.DefaultEpsilonToken, To: "q1"},
			{From: "q1", Symbol: definition.DefaultEpsilonToken, To: "q0"},
			{From: "q1", Symbol: "a", To: "q2"},
		},
	}
}

// Chain returns n+1 states s0..sn where si reads symbol into si+1 and, when
// withEpsilon is set, si also has an epsilon move to si+1. Only sn accepts.
func Chain(n int, symbol string, withEpsilon bool) definition.Definition {
	d := definition.Definition{Start: "s0"}
	for i := 0; i <= n; i++ {
		d.States = append(d.States, fmt.Sprintf("s%d", i))
	}
	for i := 0; i < n; i++ {
		from, to := d.States[i], d.States[i+1]
		d.Transitions = append(d.Transitions, definition.TransitionDef{From: from, Symbol: symbol, To: to})
		if withEpsilon {
			d.Transitions = append(d.Transitions, definition.TransitionDef{
				From: from, Symbol: definition.DefaultEpsilonToken, To: to,
			})
		}
	}
	d.Accepting = []string{d.States[n]}
	return d
}

// Word joins n copies of symbol with commas.
func Word(symbol string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = symbol
	}
	return strings.Join(parts, ",")
}

// WriteDefinition writes def as YAML into dir and returns the file path.
func WriteDefinition(tb testing.TB, dir string, def definition.Definition) string {
	tb.Helper()
	data, err := yaml.Marshal(def)
	if err != nil {
		tb.Fatalf("marshal definition: %v", err)
	}
	path := filepath.Join(dir, "automaton.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write definition: %v", err)
	}
	return path
}
