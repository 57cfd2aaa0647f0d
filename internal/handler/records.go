// Package handler is the thin HTTP adapter over the anchoring core.
// Handlers are structs that mount their routes via Register, following
// one pattern throughout: bind, call the core, map errors to status.
package handler

import (
	"net/http"

	"github.com/caldermed/medanchor/internal/canonical"
	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordHandler handles record creation. Each create stores the record,
// then anchors its canonical hash to the ledger. A failed anchor leaves
// the record in the store and surfaces a 5xx so the caller can retry
// the anchor later.
type RecordHandler struct {
	store  records.Store
	writer *ledger.Writer
	logger *zap.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(store records.Store, writer *ledger.Writer, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{store: store, writer: writer, logger: logger}
}

// Register mounts the record routes on the given router group.
func (h *RecordHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/patients", h.CreatePatient)
	rg.POST("/organs", h.CreateOrgan)
}

type createPatientRequest struct {
	Name      string `json:"name" binding:"required"`
	BloodType string `json:"bloodType" binding:"required"`
	Age       int    `json:"age" binding:"gte=0"`
}

type createOrganRequest struct {
	Type      string `json:"type" binding:"required"`
	BloodType string `json:"bloodType" binding:"required"`
	DonorID   string `json:"donorId" binding:"required"`
}

// CreatePatient handles POST /patients.
func (h *RecordHandler) CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &records.Patient{Name: req.Name, BloodType: req.BloodType, Age: req.Age}
	hash, err := canonical.HashPatient(p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.CreatePatient(ctx, p); err != nil {
		h.logger.Error("create patient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store patient"})
		return
	}

	txID, err := h.writer.Anchor(ctx, records.TypePatient, hash)
	RecordAnchor(string(records.TypePatient), err == nil)
	if err != nil {
		// The record stays in the store; only the anchor is missing.
		h.logger.Error("anchor patient hash",
			zap.String("patient_id", p.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "patient stored but anchoring failed; retry the anchor",
		})
		return
	}

	p.TransactionID = string(txID)
	if err := h.store.SetPatientTransaction(ctx, p.ID, p.TransactionID); err != nil {
		h.logger.Warn("record patient transaction id", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"transactionId": p.TransactionID,
		"hash":          hash,
		"patient":       p,
	})
}

// CreateOrgan handles POST /organs.
func (h *RecordHandler) CreateOrgan(c *gin.Context) {
	var req createOrganRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o := &records.Organ{OrganType: req.Type, BloodType: req.BloodType, DonorID: req.DonorID}
	hash, err := canonical.HashOrgan(o)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.CreateOrgan(ctx, o); err != nil {
		h.logger.Error("create organ", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store organ"})
		return
	}

	txID, err := h.writer.Anchor(ctx, records.TypeOrgan, hash)
	RecordAnchor(string(records.TypeOrgan), err == nil)
	if err != nil {
		h.logger.Error("anchor organ hash",
			zap.String("organ_id", o.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "organ stored but anchoring failed; retry the anchor",
		})
		return
	}

	o.TransactionID = string(txID)
	if err := h.store.SetOrganTransaction(ctx, o.ID, o.TransactionID); err != nil {
		h.logger.Warn("record organ transaction id", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"transactionId": o.TransactionID,
		"hash":          hash,
		"organ":         o,
	})
}
