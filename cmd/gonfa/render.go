package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"GoNFA/internal/automaton"
	"GoNFA/internal/crosscheck"
)

var (
	labelStyle    = lipgloss.NewStyle().Bold(true)
	acceptedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	rejectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func verdict(accepted bool) string {
	if accepted {
		return acceptedStyle.Render("accepted")
	}
	return rejectedStyle.Render("rejected")
}

func printEndStates(w io.Writer, nfa *automaton.Automaton, trace automaton.Trace) {
	fmt.Fprintln(w, labelStyle.Render("end states:"))
	for _, s := range trace.Final {
		name := nfa.Name(s)
		if nfa.IsAccepting(s) {
			name += dimStyle.Render(" (accepting)")
		}
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func printSteps(w io.Writer, nfa *automaton.Automaton, trace automaton.Trace) {
	fmt.Fprintf(w, "%s {%s}\n", labelStyle.Render("start:"), strings.Join(nfa.Names(trace.Initial), ", "))
	for i, step := range trace.Steps {
		fmt.Fprintf(w, "%3d %-8s {%s}\n", i+1, step.Symbol, strings.Join(nfa.Names(step.States), ", "))
	}
}

func printReport(w io.Writer, r *crosscheck.Report) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("alphabet:"), strings.Join(r.Alphabet, ", "))
	fmt.Fprintf(w, "%s %d (max length %d)\n", labelStyle.Render("words:"), r.Words, r.MaxLength)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("agree:"), r.Agree)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("dead-end divergences:"), r.DeadEndDivergences)
	divergences := fmt.Sprintf("%d", r.Divergences)
	if r.Divergences > 0 {
		divergences = warnStyle.Render(divergences)
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("divergences:"), divergences)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("exhausted:"), r.Exhausted)

	for _, f := range r.Findings {
		line := fmt.Sprintf("  %-24s %-20s simulate=%v verify=%v consumed=%d",
			"["+strings.Join(f.Word, ",")+"]", f.Outcome, f.Simulated, f.Verified, f.Consumed)
		if f.Outcome == crosscheck.OutcomeDivergence {
			line = warnStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

type stepJSON struct {
	Symbol string   `json:"symbol"`
	States []string `json:"states"`
}

type traceOutput struct {
	Word     string     `json:"word"`
	Accepted bool       `json:"accepted"`
	Initial  []string   `json:"initial"`
	Steps    []stepJSON `json:"steps"`
	Final    []string   `json:"final"`
	Consumed int        `json:"consumed"`
	DeadEnd  bool       `json:"dead_end"`
}

func traceJSON(nfa *automaton.Automaton, word string, trace automaton.Trace) traceOutput {
	out := traceOutput{
		Word:     word,
		Accepted: trace.Accepted,
		Initial:  nfa.Names(trace.Initial),
		Steps:    make([]stepJSON, len(trace.Steps)),
		Final:    nfa.Names(trace.Final),
		Consumed: trace.Consumed,
		DeadEnd:  trace.DeadEnd,
	}
	for i, s := range trace.Steps {
		out.Steps[i] = stepJSON{Symbol: s.Symbol.String(), States: nfa.Names(s.States)}
	}
	return out
}
