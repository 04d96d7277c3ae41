package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"GoNFA/internal/analysis"
	"GoNFA/internal/automaton"
	"GoNFA/internal/crosscheck"
	"GoNFA/internal/definition"
)

// ErrUnexplainedDivergence is returned by crosscheck --strict when the two
// algorithms disagree on a word without a dead end.
var ErrUnexplainedDivergence = errors.New("simulation and enumeration disagree")

// automatonFlags describes the automaton a query runs against.
type automatonFlags struct {
	file        string
	sample      bool
	states      []string
	start       string
	accepting   []string
	transitions []string
}

func (f *automatonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "YAML or JSON automaton definition")
	cmd.Flags().BoolVar(&f.sample, "sample", false, "use the built-in Q0..Q3 sample automaton")
	cmd.Flags().StringSliceVar(&f.states, "state", nil, "declared state names (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.start, "start", "", "start state name")
	cmd.Flags().StringSliceVar(&f.accepting, "accept", nil, "accepting state names (repeatable or comma-separated)")
	cmd.Flags().StringArrayVarP(&f.transitions, "transition", "t", nil, `transition "from,symbol,to" (repeatable)`)
	cmd.MarkFlagsMutuallyExclusive("file", "sample", "state")
}

// definition resolves the flags to a Definition.
func (f *automatonFlags) definition() (definition.Definition, error) {
	switch {
	case f.sample:
		return definition.Sample(), nil
	case f.file != "":
		return definition.Load(f.file)
	case len(f.states) == 0:
		return definition.Definition{}, errors.New("no automaton given: use --sample, --file or --state")
	}

	transitions, err := definition.ParseTransitions(f.transitions)
	if err != nil {
		return definition.Definition{}, err
	}
	return definition.Definition{
		States:      f.states,
		Start:       f.start,
		Accepting:   f.accepting,
		Transitions: transitions,
	}, nil
}

// build constructs the automaton under the loaded configuration.
func (a *app) build(f *automatonFlags) (*automaton.Automaton, error) {
	def, err := f.definition()
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.AutomatonOptions(analysis.NewRegistry())
	if err != nil {
		return nil, err
	}
	nfa, err := def.Build(a.cfg.EpsilonToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("build automaton: %w", err)
	}
	a.logger.Debug("automaton built",
		"states", len(nfa.States()),
		"transitions", len(nfa.Transitions()),
		"epsilon_transitions", nfa.EpsilonCount(),
	)
	return nfa, nil
}

func wordArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo [WORD]",
		Short: "Run both algorithms on the sample automaton",
		Long: `Builds the sample automaton (Q0 loops on A, B leads to Q1, epsilon
moves lead through Q2 to the accepting Q3) and decides WORD, "A,B" by
default, with both simulation and enumeration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := "A,B"
			if len(args) == 1 {
				word = args[0]
			}
			nfa, err := a.build(&automatonFlags{sample: true})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			trace := nfa.SimulateTrace(word)
			printEndStates(out, nfa, trace)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("simulate:"), verdict(trace.Accepted))

			verified, err := nfa.VerifyByEnumeration(word)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("verify:  "), verdict(verified))
			return nil
		},
	}
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		flags    automatonFlags
		showJSON bool
		showStep bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [WORD]",
		Short: "Decide a word by subset simulation",
		Long: `Decide WORD by subset simulation with epsilon-closure and print the
states occupied at the end. A symbol with no successor ends the run early;
the verdict is then taken on the states reached before it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nfa, err := a.build(&flags)
			if err != nil {
				return err
			}
			word := wordArg(args)
			trace := nfa.SimulateTrace(word)

			out := cmd.OutOrStdout()
			if showJSON {
				return writeJSON(out, traceJSON(nfa, word, trace))
			}
			if showStep {
				printSteps(out, nfa, trace)
			}
			printEndStates(out, nfa, trace)
			if trace.DeadEnd {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("dead end after %d symbol(s)", trace.Consumed)))
			}
			fmt.Fprintln(out, verdict(trace.Accepted))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&showJSON, "json", false, "print the trace as JSON")
	cmd.Flags().BoolVar(&showStep, "steps", false, "print the state set after every symbol")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		flags automatonFlags
		limit uint64
	)
	cmd := &cobra.Command{
		Use:   "verify [WORD]",
		Short: "Decide a word by enumerating state sequences",
		Long: `Decide WORD by brute force: every sequence of declared states of
length len(word)+1 up to len(word)+1+E (E = number of epsilon transitions) is
checked against the transition list. Fails when the sequence count exceeds
the enumeration limit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit > 0 {
				a.cfg.MaxEnumeratedSequences = limit
			}
			nfa, err := a.build(&flags)
			if err != nil {
				return err
			}
			symbols := nfa.Symbols(wordArg(args))
			count, ok := nfa.SequenceCount(len(symbols))

			accepted, err := nfa.VerifySymbols(symbols)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintf(out, "%s %d\n", labelStyle.Render("sequences:"), count)
			}
			fmt.Fprintln(out, verdict(accepted))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Uint64Var(&limit, "limit", 0, "enumeration limit; overrides config")
	return cmd
}

func newCrosscheckCmd(a *app) *cobra.Command {
	var (
		flags     automatonFlags
		alphabet  []string
		maxLength int
		workers   int
		strict    bool
		showJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare simulation and enumeration over all short words",
		Long: `Generate every word over the alphabet (the automaton's own symbols by
default) up to --max-length and decide each with both algorithms.

Words where simulation hit a dead end are reported separately: simulation
decides those on the states reached before the dead end while enumeration
requires the whole word to be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nfa, err := a.build(&flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-length") {
				maxLength = a.cfg.Crosscheck.MaxWordLength
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Crosscheck.Workers
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Crosscheck.Timeout)
			defer cancel()

			checker := crosscheck.New(crosscheck.Options{
				Alphabet:  alphabet,
				MaxLength: maxLength,
				Workers:   workers,
			}, a.logger)
			report, err := checker.Run(ctx, nfa)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			if strict && !report.Consistent() {
				return fmt.Errorf("%w on %d word(s)", ErrUnexplainedDivergence, report.Divergences)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&alphabet, "alphabet", nil, "symbols to combine (default: the automaton's alphabet)")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "longest generated word (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent comparisons (default from config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero on divergences not explained by a dead end")
	cmd.Flags().BoolVar(&showJSON, "json", false, "print the report as JSON")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		flags    automatonFlags
		showJSON bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Validate an automaton and print it as a definition file",
		Long: `Build the automaton described by the flags and print it as a YAML
definition that --file accepts. Duplicate states and accepting states are
collapsed and epsilon transitions use the configured epsilon token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nfa, err := a.build(&flags)
			if err != nil {
				return err
			}
			def := definition.FromAutomaton(nfa, a.cfg.EpsilonToken)

			out := cmd.OutOrStdout()
			if showJSON {
				return writeJSON(out, def)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(def); err != nil {
				return fmt.Errorf("encode definition: %w", err)
			}
			return enc.Close()
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&showJSON, "json", false, "print the definition as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
