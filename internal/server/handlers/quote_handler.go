package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/goldquote/internal/domain/models"
)

const manualSyncTimeout = 20 * time.Second

// QuoteService is what the HTTP layer needs from the quote controller.
type QuoteService interface {
	Current() models.QuoteSnapshot
	ApplyInputs(req models.QuoteInputsRequest) models.QuoteSnapshot
	Estimate(req models.EstimateRequest) models.Quote
	Rate() models.RateView
}

// SnapshotStream hands out live snapshot subscriptions.
type SnapshotStream interface {
	Subscribe() (<-chan models.QuoteSnapshot, func())
}

// RateSyncer triggers one rate sync.
type RateSyncer interface {
	Run(ctx context.Context)
}

// QuoteHandler exposes quote and rate operations over HTTP.
type QuoteHandler struct {
	svc    QuoteService
	stream SnapshotStream
	syncer RateSyncer
	logger *zap.Logger
}

// NewQuoteHandler constructs the HTTP handler adapter.
func NewQuoteHandler(svc QuoteService, stream SnapshotStream, syncer RateSyncer, logger *zap.Logger) *QuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{svc: svc, stream: stream, syncer: syncer, logger: logger}
}

// Rate returns the current base, purity and effective rate.
func (h *QuoteHandler) Rate(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Rate())
}

// SyncRate runs one sync immediately. Failures leave the rate as it was.
func (h *QuoteHandler) SyncRate(c *gin.Context) {
	if h.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate sync not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), manualSyncTimeout)
	defer cancel()

	h.syncer.Run(ctx)
	c.JSON(http.StatusOK, h.svc.Rate())
}

// Current returns the latest quote snapshot.
func (h *QuoteHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Current())
}

// UpdateInputs applies weight, purity or making percentage edits.
func (h *QuoteHandler) UpdateInputs(c *gin.Context) {
	var req models.QuoteInputsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid quote inputs payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.svc.ApplyInputs(req))
}

// Estimate prices a static quote against a supplied or current 24K rate.
func (h *QuoteHandler) Estimate(c *gin.Context) {
	var req models.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid estimate payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.svc.Estimate(req))
}

// Stream pushes the current snapshot and every following one as server-sent events.
func (h *QuoteHandler) Stream(c *gin.Context) {
	updates, cancel := h.stream.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("quote", h.svc.Current())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("quote", snapshot)
			return true
		}
	})
}
