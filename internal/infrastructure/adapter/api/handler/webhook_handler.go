package handler

import (
	"net/http"

	domainerr "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/webhook"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// WebhookHandler handles payment-provider webhook deliveries
type WebhookHandler struct {
	ingestor *webhook.Ingestor
	logger   coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(ingestor *webhook.Ingestor, logger coreport.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingestor: ingestor,
		logger:   logger,
	}
}

// PaymentCaptured handles the POST /webhooks/payment-captured endpoint.
// Signature verification happens in middleware before this runs.
func (h *WebhookHandler) PaymentCaptured(c *gin.Context) {
	var req dto.CaptureEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid capture event format", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.ingestor.Ingest(c.Request.Context(), webhook.CaptureEvent{
		CorrelationID: req.CorrelationID,
		ProductID:     req.ProductID,
		SellerID:      req.SellerID,
		BuyerEmail:    req.BuyerEmail,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		h.logger.Error("Capture event ingestion failed", map[string]any{
			"correlation_id": req.CorrelationID,
			"error":          err.Error(),
		})
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, dto.CaptureEventResponse{
		TransactionID: result.TransactionID,
		Duplicate:     result.Duplicate,
	})
}
