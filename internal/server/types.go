package server

import (
	"time"

	"GoNFA/internal/automaton"
	"GoNFA/internal/crosscheck"
	"GoNFA/internal/definition"
)

// WordRequest is the body of the simulate and verify endpoints. An empty
// word is valid and denotes the empty symbol sequence.
type WordRequest struct {
	Word string `json:"word"`
}

// CrosscheckRequest is the body of the crosscheck endpoint.
type CrosscheckRequest struct {
	// Alphabet lists the symbol labels to combine. Empty means the
	// automaton's own alphabet.
	Alphabet []string `json:"alphabet" binding:"omitempty,max=16,dive,required"`

	// MaxLength is the longest generated word. Nil means the configured
	// default.
	MaxLength *int `json:"max_length" binding:"omitempty,gte=0,lte=12"`
}

// BatchRequest is the body of the batch endpoints.
type BatchRequest struct {
	// IDs selects the automata to run. Empty means every registered one.
	IDs []string `json:"ids" binding:"omitempty,dive,required"`

	Words []string `json:"words" binding:"required,min=1"`
}

// CreateResponse is returned by POST /v1/automata.
type CreateResponse struct {
	ID string `json:"id"`
}

// AutomatonResponse describes one registered automaton.
type AutomatonResponse struct {
	ID                 string                `json:"id"`
	CreatedAt          time.Time             `json:"created_at"`
	Definition         definition.Definition `json:"definition"`
	Alphabet           []string              `json:"alphabet"`
	EpsilonTransitions int                   `json:"epsilon_transitions"`
}

// ListResponse is returned by GET /v1/automata.
type ListResponse struct {
	Automata []AutomatonResponse `json:"automata"`
	Count    int                 `json:"count"`
}

// StepResponse is one step of a simulation trace.
type StepResponse struct {
	Symbol string   `json:"symbol"`
	States []string `json:"states"`
}

// SimulateResponse is returned by the simulate endpoint.
type SimulateResponse struct {
	ID       string         `json:"id"`
	Word     string         `json:"word"`
	Symbols  []string       `json:"symbols"`
	Accepted bool           `json:"accepted"`
	Initial  []string       `json:"initial"`
	Steps    []StepResponse `json:"steps"`
	Final    []string       `json:"final"`
	Consumed int            `json:"consumed"`
	DeadEnd  bool           `json:"dead_end"`
	TookMs   int64          `json:"took_ms"`
}

// VerifyResponse is returned by the verify endpoint.
type VerifyResponse struct {
	ID        string   `json:"id"`
	Word      string   `json:"word"`
	Symbols   []string `json:"symbols"`
	Accepted  bool     `json:"accepted"`
	Sequences uint64   `json:"sequences"`
	TookMs    int64    `json:"took_ms"`
}

// CrosscheckResponse is returned by the crosscheck endpoint.
type CrosscheckResponse struct {
	ID         string `json:"id"`
	Consistent bool   `json:"consistent"`
	*crosscheck.Report
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}

func newAutomatonResponse(e *Entry) AutomatonResponse {
	return AutomatonResponse{
		ID:                 e.ID,
		CreatedAt:          e.CreatedAt,
		Definition:         e.Definition,
		Alphabet:           labels(e.Automaton.Alphabet()),
		EpsilonTransitions: e.Automaton.EpsilonCount(),
	}
}

func newSimulateResponse(e *Entry, word string, symbols []automaton.Symbol, tr automaton.Trace) *SimulateResponse {
	a := e.Automaton
	steps := make([]StepResponse, len(tr.Steps))
	for i, s := range tr.Steps {
		steps[i] = StepResponse{Symbol: s.Symbol.String(), States: a.Names(s.States)}
	}
	return &SimulateResponse{
		ID:       e.ID,
		Word:     word,
		Symbols:  labels(symbols),
		Accepted: tr.Accepted,
		Initial:  a.Names(tr.Initial),
		Steps:    steps,
		Final:    a.Names(tr.Final),
		Consumed: tr.Consumed,
		DeadEnd:  tr.DeadEnd,
	}
}

func labels(symbols []automaton.Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.String()
	}
	return out
}
