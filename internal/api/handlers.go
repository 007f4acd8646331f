package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

const healthCheckTimeout = 5 * time.Second

// Health statuses.
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Runs starts harvests and reports on them.
type Runs interface {
	Start(ctx context.Context, done func(*harvest.Report, error)) error
	Running() bool
	Latest() *harvest.Report
}

// LockInspector reports who holds the run lock.
type LockInspector interface {
	Owner(ctx context.Context) (string, error)
}

// HandlerOptions wires the handler's collaborators.
type HandlerOptions struct {
	ServiceName    string
	ServiceVersion string
	Runs           Runs
	// Store is checked by /health when set.
	Store   storage.HealthChecker
	Buckets []string
	// Lock is reported by /health when set.
	Lock LockInspector
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// RunContext is the parent context of runs triggered over HTTP.
	RunContext context.Context
	Logger     logger.Logger
}

// Handler serves the status API.
type Handler struct {
	opts    HandlerOptions
	started time.Time
}

// NewHandler creates a Handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.RunContext == nil {
		opts.RunContext = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Handler{opts: opts, started: time.Now()}
}

// Register adds the routes to router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", h.health)
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	if h.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/runs/latest", h.latestRun)
	v1.POST("/runs", h.triggerRun)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Running bool   `json:"running"`
	Store   string `json:"store,omitempty"`
	// LockOwner is the run id holding the run lock, or "" when it is free.
	LockOwner string `json:"lock_owner,omitempty"`
	LockError string `json:"lock_error,omitempty"`
}

func (h *Handler) health(c *gin.Context) {
	resp := healthResponse{
		Status:  statusHealthy,
		Service: h.opts.ServiceName,
		Version: h.opts.ServiceVersion,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Running: h.opts.Runs.Running(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if h.opts.Lock != nil {
		owner, err := h.opts.Lock.Owner(ctx)
		if err != nil {
			resp.LockError = err.Error()
		}
		resp.LockOwner = owner
	}

	if h.opts.Store != nil {
		if err := h.opts.Store.HealthCheck(ctx, h.opts.Buckets...); err != nil {
			resp.Status = statusUnhealthy
			resp.Store = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Store = statusHealthy
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) latestRun(c *gin.Context) {
	report := h.opts.Runs.Latest()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"message": report.Message(),
	})
}

func (h *Handler) triggerRun(c *gin.Context) {
	log := h.opts.Logger
	err := h.opts.Runs.Start(h.opts.RunContext, func(report *harvest.Report, runErr error) {
		if runErr != nil {
			log.Error("Triggered harvest failed to start", logger.Error(runErr))
			return
		}
		log.Info("Triggered harvest finished", logger.String("run_id", report.RunID), logger.String("outcome", report.Outcome))
	})

	if errors.Is(err, harvest.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
