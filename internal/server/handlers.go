package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"GoNFA/internal/automaton"
	"GoNFA/internal/config"
	"GoNFA/internal/coordinator"
	"GoNFA/internal/crosscheck"
	"GoNFA/internal/definition"
)

// Handlers holds the HTTP handlers for the automaton API.
type Handlers struct {
	svc     *Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHandlers creates Handlers backed by svc. Enumeration endpoints (verify
// and crosscheck) share one token bucket sized by cfg.
func NewHandlers(svc *Service, cfg config.ServerConfig, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.VerifyRate), cfg.VerifyBurst),
		logger:  logger,
	}
}

// HandleCreate handles POST /v1/automata.
//
// Response:
//
//	201 Created: CreateResponse
//	400 Bad Request: malformed body, INVALID_START, INVALID_ACCEPT_SET, INVALID_TRANSITION
//	503 Service Unavailable: REGISTRY_FULL
func (h *Handlers) HandleCreate(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreate")

	var def definition.Definition
	if err := c.ShouldBindJSON(&def); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	e, err := h.svc.Create(c.Request.Context(), def)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateResponse{ID: e.ID})
}

// HandleList handles GET /v1/automata.
func (h *Handlers) HandleList(c *gin.Context) {
	entries := h.svc.Registry().List()
	resp := ListResponse{
		Automata: make([]AutomatonResponse, 0, len(entries)),
		Count:    len(entries),
	}
	for _, e := range entries {
		resp.Automata = append(resp.Automata, newAutomatonResponse(e))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGet handles GET /v1/automata/:id.
func (h *Handlers) HandleGet(c *gin.Context) {
	e, err := h.svc.Registry().Get(c.Param("id"))
	if err != nil {
		h.writeError(c, h.requestLogger(c, "HandleGet"), err)
		return
	}
	c.JSON(http.StatusOK, newAutomatonResponse(e))
}

// HandleDelete handles DELETE /v1/automata/:id.
func (h *Handlers) HandleDelete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, h.requestLogger(c, "HandleDelete"), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSimulate handles POST /v1/automata/:id/simulate.
func (h *Handlers) HandleSimulate(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSimulate")

	var req WordRequest
	if !h.bind(c, logger, &req) {
		return
	}

	resp, err := h.svc.Simulate(c.Request.Context(), c.Param("id"), req.Word)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	logger.Debug("simulated", "word", req.Word, "accepted", resp.Accepted, "dead_end", resp.DeadEnd)
	c.JSON(http.StatusOK, resp)
}

// HandleVerify handles POST /v1/automata/:id/verify.
//
// Response:
//
//	200 OK: VerifyResponse
//	404 Not Found: NOT_FOUND
//	422 Unprocessable Entity: RESOURCE_EXHAUSTED
//	429 Too Many Requests: RATE_LIMITED
func (h *Handlers) HandleVerify(c *gin.Context) {
	logger := h.requestLogger(c, "HandleVerify")

	var req WordRequest
	if !h.bind(c, logger, &req) {
		return
	}

	resp, err := h.svc.Verify(c.Request.Context(), c.Param("id"), req.Word)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	logger.Debug("verified", "word", req.Word, "accepted", resp.Accepted, "sequences", resp.Sequences)
	c.JSON(http.StatusOK, resp)
}

// HandleCrosscheck handles POST /v1/automata/:id/crosscheck.
func (h *Handlers) HandleCrosscheck(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCrosscheck")

	var req CrosscheckRequest
	if !h.bind(c, logger, &req) {
		return
	}
	maxLength := -1
	if req.MaxLength != nil {
		maxLength = *req.MaxLength
	}

	resp, err := h.svc.Crosscheck(c.Request.Context(), c.Param("id"), req.Alphabet, maxLength)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleBatch handles POST /v1/batch/:mode, where mode is simulate or verify.
//
// Response:
//
//	200 OK: coordinator.BatchResult, status "success" or "partial"
//	400 Bad Request: UNKNOWN_MODE, NO_TARGETS, TOO_MANY_WORDS
//	404 Not Found: an ID in ids is not registered
//	422 Unprocessable Entity: ALL_TARGETS_FAILED, with the result as details
func (h *Handlers) HandleBatch(c *gin.Context) {
	logger := h.requestLogger(c, "HandleBatch")

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	mode := coordinator.Mode(c.Param("mode"))
	result, err := h.svc.Batch(c.Request.Context(), mode, req.IDs, req.Words)
	if errors.Is(err, coordinator.ErrAllTargetsFailed) {
		logger.Warn("batch failed on every target", "targets", len(result.Errors))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   err.Error(),
			"code":    "ALL_TARGETS_FAILED",
			"details": result,
		})
		return
	}
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": Version,
	})
}

// HandleReady handles GET /ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"automata": h.svc.Registry().Len(),
	})
}

// bind decodes an optional JSON body into req. An empty body leaves req at
// its zero value.
func (h *Handlers) bind(c *gin.Context, logger *slog.Logger, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

// writeError maps service errors to status codes.
func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	switch {
	case errors.Is(err, ErrAutomatonNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrRegistryFull):
		status, code = http.StatusServiceUnavailable, "REGISTRY_FULL"
	case errors.Is(err, automaton.ErrInvalidStart):
		status, code = http.StatusBadRequest, "INVALID_START"
	case errors.Is(err, automaton.ErrInvalidAcceptSet):
		status, code = http.StatusBadRequest, "INVALID_ACCEPT_SET"
	case errors.Is(err, automaton.ErrInvalidTransition):
		status, code = http.StatusBadRequest, "INVALID_TRANSITION"
	case errors.Is(err, automaton.ErrUnknownState):
		status, code = http.StatusBadRequest, "UNKNOWN_STATE"
	case errors.Is(err, automaton.ErrResourceExhausted):
		status, code = http.StatusUnprocessableEntity, "RESOURCE_EXHAUSTED"
	case errors.Is(err, crosscheck.ErrEmptyAlphabet):
		status, code = http.StatusBadRequest, "EMPTY_ALPHABET"
	case errors.Is(err, crosscheck.ErrTooManyWords):
		status, code = http.StatusBadRequest, "TOO_MANY_WORDS"
	case errors.Is(err, coordinator.ErrUnknownMode):
		status, code = http.StatusBadRequest, "UNKNOWN_MODE"
	case errors.Is(err, coordinator.ErrNoTargets):
		status, code = http.StatusBadRequest, "NO_TARGETS"
	case errors.Is(err, coordinator.ErrTooManyWords):
		status, code = http.StatusBadRequest, "TOO_MANY_WORDS"
	case errors.Is(err, coordinator.ErrNoWords):
		status, code = http.StatusBadRequest, "NO_WORDS"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "code", code, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With("request_id", c.GetString(requestIDKey), "handler", handler)
}
