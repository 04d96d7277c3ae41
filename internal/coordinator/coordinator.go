// Package coordinator runs one batch of words against many automata at once.
//
// Each automaton is a Target. The Coordinator fans the batch out to every
// target in parallel, bounds each one by a timeout, and merges what comes
// back. Targets that fail or time out are reported next to the decisions of
// the ones that finished, so one slow oracle does not sink the batch.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"GoNFA/internal/automaton"
)

var (
	ErrNoTargets        = errors.New("coordinator: no targets")
	ErrNoWords          = errors.New("coordinator: no words")
	ErrTooManyWords     = errors.New("coordinator: too many words")
	ErrUnknownMode      = errors.New("coordinator: unknown mode")
	ErrAllTargetsFailed = errors.New("coordinator: all targets failed")
)

// Target decides words for one automaton.
type Target interface {
	// ID identifies the target in results.
	ID() string

	// Decide returns one decision per word, in order.
	Decide(ctx context.Context, mode Mode, words []string) ([]Decision, error)
}

// Coordinator fans batches out to targets and merges the decisions. It holds
// no per-batch state and may be shared.
type Coordinator struct {
	config Config
	logger *slog.Logger
}

// New creates a Coordinator.
func New(config Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{config: config, logger: logger}
}

// Run decides every word on every target.
//
// The result status is "success" when all targets finished and "partial"
// when some failed. If every target failed Run returns ErrAllTargetsFailed
// along with a result listing the errors.
func (c *Coordinator) Run(ctx context.Context, mode Mode, targets []Target, words []string) (*BatchResult, error) {
	start := time.Now()

	switch {
	case !mode.Valid():
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	case len(targets) == 0:
		return nil, ErrNoTargets
	case len(words) == 0:
		return nil, ErrNoWords
	case c.config.MaxWords > 0 && len(words) > c.config.MaxWords:
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWords, len(words), c.config.MaxWords)
	}

	batchID := uuid.NewString()
	responses := c.fanOut(ctx, mode, targets, words)

	var decisions []Decision
	var targetErrors []TargetError
	var successful []string

	for _, resp := range responses {
		if resp.err != nil {
			targetErrors = append(targetErrors, TargetError{
				TargetID: resp.targetID,
				Error:    resp.err.Error(),
			})
			c.logger.Warn("target failed",
				"batch", batchID,
				"target", resp.targetID,
				"error", resp.err,
			)
			continue
		}
		decisions = append(decisions, resp.decisions...)
		successful = append(successful, resp.targetID)
	}
	slices.Sort(successful)
	slices.SortFunc(targetErrors, func(a, b TargetError) bool { return a.TargetID < b.TargetID })

	if len(successful) == 0 {
		return &BatchResult{
			BatchID: batchID,
			Mode:    mode,
			Status:  "error",
			Errors:  targetErrors,
			TookMs:  time.Since(start).Milliseconds(),
		}, ErrAllTargetsFailed
	}

	// Targets finish in any order; words keep their batch order per target.
	slices.SortStableFunc(decisions, func(a, b Decision) bool { return a.TargetID < b.TargetID })

	accepted := 0
	for _, d := range decisions {
		if d.Accepted {
			accepted++
		}
	}

	status := "success"
	if len(targetErrors) > 0 {
		status = "partial"
	}

	c.logger.Debug("batch complete",
		"batch", batchID,
		"mode", mode,
		"targets", len(targets),
		"words", len(words),
		"failed", len(targetErrors),
	)

	return &BatchResult{
		BatchID:           batchID,
		Mode:              mode,
		Status:            status,
		Decisions:         decisions,
		Accepted:          accepted,
		TookMs:            time.Since(start).Milliseconds(),
		SuccessfulTargets: successful,
		Errors:            targetErrors,
	}, nil
}

// targetResult is an internal type for collecting fan-out results.
type targetResult struct {
	targetID  string
	decisions []Decision
	err       error
}

// fanOut sends the batch to all targets in parallel, each under its own
// timeout.
func (c *Coordinator) fanOut(ctx context.Context, mode Mode, targets []Target, words []string) []targetResult {
	results := make([]targetResult, 0, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			tctx := ctx
			if c.config.PerTargetTimeout > 0 {
				var cancel context.CancelFunc
				tctx, cancel = context.WithTimeout(ctx, c.config.PerTargetTimeout)
				defer cancel()
			}
			decisions, err := t.Decide(tctx, mode, words)

			mu.Lock()
			results = append(results, targetResult{
				targetID:  t.ID(),
				decisions: decisions,
				err:       err,
			})
			mu.Unlock()
		}(target)
	}

	wg.Wait()
	return results
}

// LocalTarget decides words on an in-process automaton.
type LocalTarget struct {
	id string
	a  *automaton.Automaton
}

// NewLocalTarget wraps a under id.
func NewLocalTarget(id string, a *automaton.Automaton) *LocalTarget {
	return &LocalTarget{id: id, a: a}
}

func (t *LocalTarget) ID() string { return t.id }

// Decide runs the words one after the other. It stops at the first oracle
// error or once ctx is done, including in the middle of an enumeration.
func (t *LocalTarget) Decide(ctx context.Context, mode Mode, words []string) ([]Decision, error) {
	out := make([]Decision, 0, len(words))
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := Decision{TargetID: t.id, Word: word}
		switch mode {
		case ModeSimulate:
			tr := t.a.SimulateTrace(word)
			d.Accepted, d.DeadEnd = tr.Accepted, tr.DeadEnd
		case ModeVerify:
			accepted, err := t.a.VerifyContext(ctx, word)
			if err != nil {
				return nil, fmt.Errorf("word %q: %w", word, err)
			}
			d.Accepted = accepted
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
		out = append(out, d)
	}
	return out, nil
}
