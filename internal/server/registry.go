package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"GoNFA/internal/automaton"
	"GoNFA/internal/definition"
	"GoNFA/internal/telemetry"
)

var (
	ErrAutomatonNotFound = errors.New("automaton not found")
	ErrRegistryFull      = errors.New("automaton registry is full")
)

// Entry is one registered automaton. Entries are immutable once added.
type Entry struct {
	ID         string
	Definition definition.Definition
	Automaton  *automaton.Automaton
	CreatedAt  time.Time
}

// Registry holds built automata in memory, keyed by generated ID.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	max     int
	logger  *slog.Logger
}

// NewRegistry creates a Registry holding at most max entries. max <= 0 means
// no limit.
func NewRegistry(max int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*Entry),
		max:     max,
		logger:  logger,
	}
}

// Add registers a under a fresh ID.
func (r *Registry) Add(def definition.Definition, a *automaton.Automaton) (*Entry, error) {
	e := &Entry{
		ID:         uuid.NewString(),
		Definition: def,
		Automaton:  a,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.put(e); err != nil {
		return nil, err
	}
	return e, nil
}

// put inserts e, keeping its ID and creation time.
func (r *Registry) put(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.entries) >= r.max {
		return ErrRegistryFull
	}
	r.entries[e.ID] = e
	telemetry.AutomataRegistered.Set(float64(len(r.entries)))

	r.logger.Info("automaton registered",
		"id", e.ID,
		"states", len(e.Automaton.States()),
		"transitions", len(e.Automaton.Transitions()),
	)
	return nil
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrAutomatonNotFound
	}
	return e, nil
}

// Delete removes the entry for id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return ErrAutomatonNotFound
	}
	delete(r.entries, id)
	telemetry.AutomataRegistered.Set(float64(len(r.entries)))

	r.logger.Info("automaton deleted", "id", id)
	return nil
}

// List returns all entries, oldest first.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	entries := maps.Values(r.entries)
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *Entry) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return entries
}

// IDs returns the registered IDs in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := maps.Keys(r.entries)
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Len returns the number of registered automata.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
