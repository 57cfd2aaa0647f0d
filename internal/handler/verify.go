package handler

import (
	"errors"
	"net/http"

	"github.com/caldermed/medanchor/internal/reconcile"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerifyHandler exposes bulk and point verification.
type VerifyHandler struct {
	rec    *reconcile.Reconciler
	logger *zap.Logger
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(rec *reconcile.Reconciler, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{rec: rec, logger: logger}
}

// Register mounts the verify routes on the given router group.
func (h *VerifyHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/verify", h.VerifyAll)
	rg.POST("/verify", h.VerifyRecord)
}

// VerifyAll handles GET /verify: replays the full topic and reconciles
// every stored record.
func (h *VerifyHandler) VerifyAll(c *gin.Context) {
	results, err := h.rec.VerifyAll(c.Request.Context())
	if err != nil {
		h.logger.Error("bulk verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	RecordReplay("bulk", true)
	c.JSON(http.StatusOK, results)
}

type verifyRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

// VerifyRecord handles POST /verify: point verification of one record.
func (h *VerifyHandler) VerifyRecord(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	typ, err := reconcile.ParseType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	result, err := h.rec.VerifyRecord(c.Request.Context(), typ, id)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		case errors.Is(err, reconcile.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("point verification",
				zap.String("type", req.Type),
				zap.String("id", req.ID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	RecordReplay("point", result.ReplayComplete)
	c.JSON(http.StatusOK, result)
}
