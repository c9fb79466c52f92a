// Package api exposes planning runs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/bagplan/pkg/application/dto"
	"github.com/vsinha/bagplan/pkg/application/services/orchestration"
	"github.com/vsinha/bagplan/pkg/application/services/processor"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"go.uber.org/zap"
)

// Planner is the application surface the handlers call
type Planner interface {
	RunPlanning(ctx context.Context, orders []entities.Order) (*dto.PlanningResult, error)
	ComputeBOM(order entities.Order) (*dto.BOMResult, error)
	GetRun(ctx context.Context, runID string) (*entities.RunResult, error)
	RunEvents(runID string) ([]dto.RunEvent, error)
	ListRuns(ctx context.Context) (*dto.RunList, error)
	Machines() []entities.MachineSpec
}

// RouterOptions configures the optional parts of the router
type RouterOptions struct {
	Logger      *zap.Logger
	Metrics     http.Handler
	MetricsPath string
	Version     string
	// RateLimit throttles /api/v1 per client when set
	RateLimit *RateLimiter
}

// Handler serves the planning endpoints
type Handler struct {
	planner Planner
}

// NewHandler creates a new planning handler
func NewHandler(planner Planner) *Handler {
	return &Handler{planner: planner}
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(planner Planner, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(opts.Logger))

	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": opts.Version})
	})
	if opts.Metrics != nil {
		r.GET(opts.MetricsPath, gin.WrapH(opts.Metrics))
	}

	h := NewHandler(planner)
	v1 := r.Group("/api/v1")
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit.Middleware())
	}
	{
		runs := v1.Group("/runs")
		{
			runs.POST("", h.CreateRun)
			runs.GET("", h.ListRuns)
			runs.GET("/:id", h.GetRun)
			runs.GET("/:id/events", h.RunEvents)
		}
		v1.POST("/bom", h.ComputeBOM)
		v1.GET("/fleet", h.Fleet)
	}
	return r
}

// CreateRun validates and processes an order batch and stores the run
func (h *Handler) CreateRun(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.planner.RunPlanning(c.Request.Context(), req.Orders)
	switch {
	case err == nil:
		Created(c, result)
	case errors.Is(err, orchestration.ErrNoValidOrders), errors.Is(err, processor.ErrNoOrders):
		BadRequest(c, err.Error())
	case result != nil:
		_ = c.Error(err)
		Unavailable(c, fmt.Sprintf("run %s stopped after %d of %d orders: %v",
			result.Run.Summary.RunID, result.Run.Summary.OrdersProcessed, result.Run.Summary.OrdersSubmitted, err), result)
	default:
		_ = c.Error(err)
		InternalError(c, err.Error())
	}
}

// GetRun returns one stored run
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.planner.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			NotFound(c, "Run not found: "+c.Param("id"))
			return
		}
		_ = c.Error(err)
		InternalError(c, err.Error())
		return
	}
	Success(c, run)
}

// RunEvents returns the event stream recorded for one run
func (h *Handler) RunEvents(c *gin.Context) {
	stream, err := h.planner.RunEvents(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			NotFound(c, "No events for run: "+c.Param("id"))
			return
		}
		_ = c.Error(err)
		InternalError(c, err.Error())
		return
	}
	Success(c, stream)
}

// ListRuns returns stored run summaries, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.planner.ListRuns(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		InternalError(c, err.Error())
		return
	}
	Success(c, runs)
}

// ComputeBOM returns the bill of materials for a single order
func (h *Handler) ComputeBOM(c *gin.Context) {
	var req dto.BOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.planner.ComputeBOM(req.Order)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, result)
}

// Fleet returns the machine definitions runs are scheduled on
func (h *Handler) Fleet(c *gin.Context) {
	Success(c, h.planner.Machines())
}
