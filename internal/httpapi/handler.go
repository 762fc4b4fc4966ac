// Package httpapi exposes the countdown and the latest dashboard as JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/storage"
)

// SnapshotSource returns the last published refresh.
type SnapshotSource interface {
	Latest(ctx context.Context) (storage.Snapshot, bool, error)
}

// RefreshRunner performs a refresh and waits for its dashboard.
type RefreshRunner interface {
	RefreshNow(ctx context.Context) (aggregator.Dashboard, error)
}

type Handler struct {
	term      countdown.TermWindow
	snapshots SnapshotSource
	refresher RefreshRunner
	logger    zerolog.Logger
	now       func() time.Time
}

func New(term countdown.TermWindow, snapshots SnapshotSource, refresher RefreshRunner, logger zerolog.Logger) *Handler {
	return &Handler{
		term:      term,
		snapshots: snapshots,
		refresher: refresher,
		logger:    logger.With().Str("component", "http").Logger(),
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/countdown", h.GetCountdown)
	r.GET("/api/dashboard", h.GetDashboard)
	r.POST("/api/refresh", h.TriggerRefresh)
}

// Health returns the liveness status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetCountdown computes the countdown at request time. It never touches the
// network.
func (h *Handler) GetCountdown(c *gin.Context) {
	c.JSON(http.StatusOK, newCountdownView(h.term, h.now()))
}

// GetDashboard returns the latest published dashboard with a fresh countdown.
func (h *Handler) GetDashboard(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dashboard not available"})
		return
	}

	snap, ok, err := h.snapshots.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load latest snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no refresh has completed yet"})
		return
	}

	c.JSON(http.StatusOK, newDashboardView(h.term, h.now(), snap.Dashboard))
}

// TriggerRefresh runs a refresh through the background worker and returns
// its result.
func (h *Handler) TriggerRefresh(c *gin.Context) {
	if h.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh not available"})
		return
	}

	dash, err := h.refresher.RefreshNow(c.Request.Context())
	switch {
	case errors.Is(err, aggregator.ErrWorkerClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, newDashboardView(h.term, h.now(), dash))
}
