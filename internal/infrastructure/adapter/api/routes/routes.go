package routes

import (
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/handler"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	webhookHandler *handler.WebhookHandler,
	escrowHandler *handler.EscrowHandler,
	healthHandler *handler.HealthHandler,
	webhookSecret string,
	logger coreport.Logger,
) {
	router.GET("/health", healthHandler.Health)

	// Provider-facing webhook, gated by signature verification
	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.WebhookAuth(webhookSecret, logger))
	{
		webhooks.POST("/payment-captured", webhookHandler.PaymentCaptured)
	}

	// Party-facing escrow lifecycle
	transactions := router.Group("/transactions")
	{
		transactions.GET("/:id", escrowHandler.GetTransaction)
		transactions.POST("/:id/ship", escrowHandler.Ship)
		transactions.POST("/:id/confirm-delivery", escrowHandler.ConfirmDelivery)
		transactions.POST("/:id/request-release", escrowHandler.RequestRelease)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
