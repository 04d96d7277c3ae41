package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"GoNFA/internal/analysis"
	"GoNFA/internal/automaton"
	"GoNFA/internal/config"
	"GoNFA/internal/coordinator"
	"GoNFA/internal/crosscheck"
	"GoNFA/internal/definition"
	"GoNFA/internal/storage"
	"GoNFA/internal/telemetry"
)

// Service implements the automaton API independent of HTTP.
type Service struct {
	cfg         config.Config
	registry    *Registry
	coordinator *coordinator.Coordinator
	store       *storage.Store
	options     []automaton.Option
	logger      *slog.Logger
}

// NewService creates a Service from cfg.
func NewService(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := cfg.AutomatonOptions(analysis.NewRegistry())
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:      cfg,
		registry: NewRegistry(cfg.Server.MaxAutomata, logger.With("component", "registry")),
		coordinator: coordinator.New(coordinator.Config{
			PerTargetTimeout: cfg.Batch.PerTargetTimeout,
			MaxWords:         cfg.Batch.MaxWords,
		}, logger.With("component", "coordinator")),
		options: opts,
		logger:  logger,
	}

	if cfg.Server.DataDir != "" {
		store, err := storage.Open(cfg.Server.DataDir, logger.With("component", "storage"))
		if err != nil {
			return nil, err
		}
		s.store = store
		if err := s.restore(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// restore rebuilds the registry from the store. Records that no longer build
// under the current configuration are skipped.
func (s *Service) restore() error {
	records, errs := s.store.LoadAll()
	for _, err := range errs {
		s.logger.Warn("record not restored", "error", err)
	}

	restored := 0
	for _, rec := range records {
		a, err := rec.Definition.Build(s.cfg.EpsilonToken, s.options...)
		if err != nil {
			s.logger.Warn("record no longer builds", "id", rec.ID, "error", err)
			continue
		}
		e := &Entry{ID: rec.ID, Definition: rec.Definition, Automaton: a, CreatedAt: rec.CreatedAt}
		if err := s.registry.put(e); err != nil {
			return fmt.Errorf("restore %s: %w", rec.ID, err)
		}
		restored++
	}

	s.logger.Info("registry restored",
		"dir", s.store.Dir(),
		"restored", restored,
		"skipped", len(records)-restored+len(errs),
	)
	return nil
}

// Registry returns the backing registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Create builds def and registers the result.
func (s *Service) Create(ctx context.Context, def definition.Definition) (*Entry, error) {
	_, span := telemetry.Tracer().Start(ctx, "server.Create",
		trace.WithAttributes(
			attribute.Int("automaton.states", len(def.States)),
			attribute.Int("automaton.transitions", len(def.Transitions)),
		),
	)
	defer span.End()

	a, err := def.Build(s.cfg.EpsilonToken, s.options...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}
	e, err := s.registry.Add(def, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		return nil, err
	}
	if s.store != nil {
		rec := storage.Record{ID: e.ID, CreatedAt: e.CreatedAt, Definition: def}
		if err := s.store.Save(rec); err != nil {
			_ = s.registry.Delete(e.ID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("automaton.id", e.ID))
	return e, nil
}

// Delete removes automaton id from the registry and the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, span := telemetry.Tracer().Start(ctx, "server.Delete",
		trace.WithAttributes(attribute.String("automaton.id", id)),
	)
	defer span.End()

	if err := s.registry.Delete(id); err != nil {
		span.RecordError(err)
		return err
	}
	if s.store != nil {
		if err := s.store.Delete(id); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// Simulate runs the subset simulation for word on automaton id.
func (s *Service) Simulate(ctx context.Context, id, word string) (*SimulateResponse, error) {
	_, span := telemetry.Tracer().Start(ctx, "server.Simulate",
		trace.WithAttributes(attribute.String("automaton.id", id)),
	)
	defer span.End()

	e, err := s.registry.Get(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	started := time.Now()
	symbols := e.Automaton.Symbols(word)
	tr := e.Automaton.Run(symbols)
	telemetry.ObserveQuery(telemetry.KindSimulate, telemetry.Verdict(tr.Accepted), started)
	if tr.DeadEnd {
		telemetry.DeadEndsTotal.Inc()
	}

	span.SetAttributes(
		attribute.Int("word.symbols", len(symbols)),
		attribute.Bool("accepted", tr.Accepted),
		attribute.Bool("dead_end", tr.DeadEnd),
	)

	resp := newSimulateResponse(e, word, symbols, tr)
	resp.TookMs = time.Since(started).Milliseconds()
	return resp, nil
}

// Verify decides word on automaton id with the enumeration oracle. It returns
// an error wrapping automaton.ErrResourceExhausted when the configured
// enumeration limit would be exceeded, and ctx.Err() if ctx ends first.
func (s *Service) Verify(ctx context.Context, id, word string) (*VerifyResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "server.Verify",
		trace.WithAttributes(attribute.String("automaton.id", id)),
	)
	defer span.End()

	e, err := s.registry.Get(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	started := time.Now()
	symbols := e.Automaton.Symbols(word)
	accepted, err := e.Automaton.VerifySymbolsContext(ctx, symbols)
	if err != nil {
		result := telemetry.ResultError
		if errors.Is(err, automaton.ErrResourceExhausted) {
			result = telemetry.ResultExhausted
		}
		telemetry.ObserveQuery(telemetry.KindVerify, result, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		s.logger.Warn("verification refused", "id", id, "symbols", len(symbols), "error", err)
		return nil, err
	}
	telemetry.ObserveQuery(telemetry.KindVerify, telemetry.Verdict(accepted), started)

	count, _ := e.Automaton.SequenceCount(len(symbols))
	span.SetAttributes(
		attribute.Int("word.symbols", len(symbols)),
		attribute.Int64("oracle.sequences", int64(count)),
		attribute.Bool("accepted", accepted),
	)

	return &VerifyResponse{
		ID:        id,
		Word:      word,
		Symbols:   labels(symbols),
		Accepted:  accepted,
		Sequences: count,
		TookMs:    time.Since(started).Milliseconds(),
	}, nil
}

// Crosscheck compares both algorithms on automaton id over every word up to
// maxLength. A negative maxLength means the configured default. The run is
// bounded by the configured crosscheck timeout.
func (s *Service) Crosscheck(ctx context.Context, id string, alphabet []string, maxLength int) (*CrosscheckResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "server.Crosscheck",
		trace.WithAttributes(attribute.String("automaton.id", id)),
	)
	defer span.End()

	e, err := s.registry.Get(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if maxLength < 0 {
		maxLength = s.cfg.Crosscheck.MaxWordLength
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Crosscheck.Timeout)
	defer cancel()

	started := time.Now()
	checker := crosscheck.New(crosscheck.Options{
		Alphabet:  alphabet,
		MaxLength: maxLength,
		Workers:   s.cfg.Crosscheck.Workers,
	}, s.logger.With("component", "crosscheck", "id", id))

	report, err := checker.Run(ctx, e.Automaton)
	if err != nil {
		telemetry.ObserveQuery(telemetry.KindCrosscheck, telemetry.ResultError, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, "crosscheck failed")
		return nil, err
	}
	telemetry.ObserveQuery(telemetry.KindCrosscheck, telemetry.Verdict(report.Consistent()), started)

	return &CrosscheckResponse{
		ID:         id,
		Consistent: report.Consistent(),
		Report:     report,
	}, nil
}

// Batch decides every word on each automaton in ids, or on every registered
// automaton when ids is empty. Automata that fail are reported in the result
// rather than failing the batch, unless all of them fail.
func (s *Service) Batch(ctx context.Context, mode coordinator.Mode, ids []string, words []string) (*coordinator.BatchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "server.Batch",
		trace.WithAttributes(
			attribute.String("batch.mode", string(mode)),
			attribute.Int("batch.words", len(words)),
		),
	)
	defer span.End()

	var entries []*Entry
	if len(ids) == 0 {
		entries = s.registry.List()
	} else {
		for _, id := range ids {
			e, err := s.registry.Get(id)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("%w: %s", err, id)
			}
			entries = append(entries, e)
		}
	}

	targets := make([]coordinator.Target, len(entries))
	for i, e := range entries {
		targets[i] = coordinator.NewLocalTarget(e.ID, e.Automaton)
	}
	span.SetAttributes(attribute.Int("batch.targets", len(targets)))

	started := time.Now()
	result, err := s.coordinator.Run(ctx, mode, targets, words)
	if err != nil {
		telemetry.ObserveQuery(telemetry.KindBatch, telemetry.ResultError, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return result, err
	}
	telemetry.ObserveQuery(telemetry.KindBatch, result.Status, started)
	return result, nil
}
