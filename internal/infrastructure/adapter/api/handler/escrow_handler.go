package handler

import (
	"net/http"

	domainerr "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// EscrowHandler handles the party-facing escrow lifecycle endpoints
type EscrowHandler struct {
	escrowService *escrow.Service
	logger        coreport.Logger
}

// NewEscrowHandler creates a new escrow handler instance
func NewEscrowHandler(escrowService *escrow.Service, logger coreport.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
		logger:        logger,
	}
}

// GetTransaction handles the GET /transactions/:id endpoint
func (h *EscrowHandler) GetTransaction(c *gin.Context) {
	txn, err := h.escrowService.GetTransaction(c.Request.Context(), actorFromRequest(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// Ship handles the POST /transactions/:id/ship endpoint
func (h *EscrowHandler) Ship(c *gin.Context) {
	var req dto.ShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	txn, err := h.escrowService.MarkShipped(
		c.Request.Context(),
		actorFromRequest(c),
		c.Param("id"),
		req.Carrier,
		req.TrackingNumber,
		req.EstimatedDeliveryAt,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// ConfirmDelivery handles the POST /transactions/:id/confirm-delivery endpoint
func (h *EscrowHandler) ConfirmDelivery(c *gin.Context) {
	var req dto.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	txn, err := h.escrowService.ConfirmDelivery(
		c.Request.Context(),
		actorFromRequest(c),
		c.Param("id"),
		*req.Satisfied,
		req.DisputeReason,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// RequestRelease handles the POST /transactions/:id/request-release endpoint
func (h *EscrowHandler) RequestRelease(c *gin.Context) {
	txn, err := h.escrowService.RequestRelease(c.Request.Context(), actorFromRequest(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}
