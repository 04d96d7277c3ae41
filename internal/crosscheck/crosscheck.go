// Package crosscheck compares the subset simulation against the
// enumeration oracle over every short word of an alphabet.
//
// The two algorithms are not expected to agree everywhere. Simulation stops
// at a dead configuration and decides on the states it reached, while the
// oracle requires the whole word to be read; those words are reported as
// dead-end divergences. The oracle also caps epsilon hops at the number of
// epsilon transitions, which can make it reject words whose accepting path
// reuses an epsilon transition; those show up as plain divergences.
package crosscheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"GoNFA/internal/automaton"
	"GoNFA/internal/telemetry"
)

// MaxWords bounds the number of words one run may generate.
const MaxWords = 1 << 16

var (
	ErrEmptyAlphabet = errors.New("crosscheck: empty alphabet")
	ErrTooManyWords  = errors.New("crosscheck: too many words")
)

// Outcome classifies one compared word.
type Outcome string

const (
	// OutcomeAgree means both algorithms returned the same verdict.
	OutcomeAgree Outcome = "agree"
	// OutcomeDeadEndDivergence means the verdicts differ and simulation hit
	// a dead configuration before reading the whole word.
	OutcomeDeadEndDivergence Outcome = "dead_end_divergence"
	// OutcomeDivergence means the verdicts differ with no dead end.
	OutcomeDivergence Outcome = "divergence"
	// OutcomeExhausted means the oracle hit its enumeration limit.
	OutcomeExhausted Outcome = "exhausted"
)

// Result is the comparison for one word.
type Result struct {
	Word      []string `json:"word"`
	Simulated bool     `json:"simulated"`
	Verified  bool     `json:"verified"`
	DeadEnd   bool     `json:"dead_end"`
	Consumed  int      `json:"consumed"`
	Outcome   Outcome  `json:"outcome"`
}

// Report summarizes a run. Findings lists every word that did not agree, in
// generation order (shortest first).
type Report struct {
	Alphabet           []string `json:"alphabet"`
	MaxLength          int      `json:"max_length"`
	Words              int      `json:"words"`
	Agree              int      `json:"agree"`
	DeadEndDivergences int      `json:"dead_end_divergences"`
	Divergences        int      `json:"divergences"`
	Exhausted          int      `json:"exhausted"`
	Findings           []Result `json:"findings"`
	TookMs             int64    `json:"took_ms"`
}

// Consistent reports whether every divergence is explained by a dead end.
func (r *Report) Consistent() bool {
	return r.Divergences == 0
}

// Options configures a Checker.
type Options struct {
	// Alphabet lists the symbol labels words are built from. Empty means the
	// automaton's own alphabet.
	Alphabet []string

	// MaxLength is the longest generated word.
	MaxLength int

	// Workers bounds concurrent comparisons. Values below 1 mean 1.
	Workers int
}

// Checker runs differential comparisons. It holds no per-run state and may
// be shared.
type Checker struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Checker.
func New(opts Options, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxLength < 0 {
		opts.MaxLength = 0
	}
	return &Checker{opts: opts, logger: logger}
}

// Run compares both algorithms on every word over the alphabet of length
// 0..MaxLength. It returns ctx.Err() if the context ends first.
func (c *Checker) Run(ctx context.Context, a *automaton.Automaton) (*Report, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "crosscheck.Run")
	defer span.End()
	started := time.Now()

	alphabet := c.alphabet(a)
	if len(alphabet) == 0 {
		return nil, ErrEmptyAlphabet
	}
	words, err := Words(alphabet, c.opts.MaxLength)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("crosscheck.alphabet_size", len(alphabet)),
		attribute.Int("crosscheck.max_length", c.opts.MaxLength),
		attribute.Int("crosscheck.words", len(words)),
	)

	results := make([]Result, len(words))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, word := range words {
		if gctx.Err() != nil {
			break
		}
		i, word := i, word
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := compare(gctx, a, word)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "crosscheck interrupted")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Alphabet:  alphabet,
		MaxLength: c.opts.MaxLength,
		Words:     len(words),
		Findings:  []Result{},
	}
	for _, r := range results {
		telemetry.CrosscheckWordsTotal.WithLabelValues(string(r.Outcome)).Inc()
		switch r.Outcome {
		case OutcomeAgree:
			report.Agree++
			continue
		case OutcomeDeadEndDivergence:
			report.DeadEndDivergences++
		case OutcomeDivergence:
			report.Divergences++
			c.logger.Warn("simulation and oracle diverge",
				"word", r.Word,
				"simulated", r.Simulated,
				"verified", r.Verified,
			)
		case OutcomeExhausted:
			report.Exhausted++
		}
		report.Findings = append(report.Findings, r)
	}
	report.TookMs = time.Since(started).Milliseconds()

	c.logger.Info("crosscheck complete",
		"words", report.Words,
		"agree", report.Agree,
		"dead_end_divergences", report.DeadEndDivergences,
		"divergences", report.Divergences,
		"exhausted", report.Exhausted,
		"took_ms", report.TookMs,
	)
	if !report.Consistent() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d unexplained divergences", report.Divergences))
	}
	return report, nil
}

func (c *Checker) alphabet(a *automaton.Automaton) []string {
	var out []string
	add := func(label string) {
		if !slices.Contains(out, label) {
			out = append(out, label)
		}
	}
	if len(c.opts.Alphabet) > 0 {
		for _, label := range c.opts.Alphabet {
			add(label)
		}
		return out
	}
	for _, sym := range a.Alphabet() {
		add(sym.Label())
	}
	return out
}

// compare runs both algorithms on one word. It fails only when ctx ends.
func compare(ctx context.Context, a *automaton.Automaton, word []string) (Result, error) {
	symbols := make([]automaton.Symbol, len(word))
	for i, label := range word {
		symbols[i] = automaton.NewSymbol(label)
	}

	trace := a.Run(symbols)
	r := Result{
		Word:      word,
		Simulated: trace.Accepted,
		DeadEnd:   trace.DeadEnd,
		Consumed:  trace.Consumed,
	}

	verified, err := a.VerifySymbolsContext(ctx, symbols)
	switch {
	case err != nil && !errors.Is(err, automaton.ErrResourceExhausted):
		return Result{}, err
	case err != nil:
		r.Outcome = OutcomeExhausted
	case verified == trace.Accepted:
		r.Verified = verified
		r.Outcome = OutcomeAgree
	case trace.DeadEnd:
		r.Verified = verified
		r.Outcome = OutcomeDeadEndDivergence
	default:
		r.Verified = verified
		r.Outcome = OutcomeDivergence
	}
	return r, nil
}

// Words returns every word over alphabet of length 0..maxLen in shortlex
// order. It fails with ErrTooManyWords past MaxWords.
func Words(alphabet []string, maxLen int) ([][]string, error) {
	total, layer := 1, 1
	for k := 1; k <= maxLen; k++ {
		layer *= len(alphabet)
		total += layer
		if total > MaxWords {
			return nil, fmt.Errorf("%w: %d symbols up to length %d", ErrTooManyWords, len(alphabet), maxLen)
		}
	}

	words := make([][]string, 0, total)
	words = append(words, []string{})
	prev := words
	for k := 1; k <= maxLen; k++ {
		next := make([][]string, 0, len(prev)*len(alphabet))
		for _, w := range prev {
			for _, sym := range alphabet {
				nw := make([]string, len(w)+1)
				copy(nw, w)
				nw[len(w)] = sym
				next = append(next, nw)
			}
		}
		words = append(words, next...)
		prev = next
	}
	return words, nil
}
