package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GoNFA/internal/telemetry"
)

// Version is reported by /health. The binary sets it at startup.
var Version = "dev"

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewRouter returns a gin engine with every route registered.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.observe())

	r.GET("/health", h.HandleHealth)
	r.GET("/ready", h.HandleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(r.Group("/v1"), h)
	return r
}

// RegisterRoutes registers the automaton API under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	automata := rg.Group("/automata")
	{
		// Lifecycle
		automata.POST("", h.HandleCreate)
		automata.GET("", h.HandleList)
		automata.GET("/:id", h.HandleGet)
		automata.DELETE("/:id", h.HandleDelete)

		// Queries
		automata.POST("/:id/simulate", h.HandleSimulate)
		automata.POST("/:id/verify", h.rateLimit(), h.HandleVerify)
		automata.POST("/:id/crosscheck", h.rateLimit(), h.HandleCrosscheck)
	}

	// Batches fan one word list out to many automata.
	rg.POST("/batch/:mode", h.rateLimit(), h.HandleBatch)
}

// rateLimit rejects enumeration requests once the shared bucket is empty.
func (h *Handlers) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "enumeration rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// observe counts requests by route and logs them at debug level.
func (h *Handlers) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		telemetry.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		h.logger.Debug("http request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"took_ms", time.Since(started).Milliseconds(),
		)
	}
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
