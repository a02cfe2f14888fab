package payments

import (
	"pujasetu/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	payments.Use(middleware.JWTAuth())
	{
		payments.POST("", controller.CreateAdvancePayment)                // POST /api/v1/payments
		payments.POST("/:bookingId/confirm", controller.ConfirmPayment)   // POST /api/v1/payments/:bookingId/confirm
		payments.POST("/:bookingId/refund", controller.ProcessRefund)     // POST /api/v1/payments/:bookingId/refund
		payments.POST("/:bookingId/complete", controller.CompleteService) // POST /api/v1/payments/:bookingId/complete
		payments.GET("/:bookingId", controller.GetPayment)                // GET /api/v1/payments/:bookingId
	}

	// Manual release and the audit trail are back-office operations
	admin := rg.Group("/payments")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("/:bookingId/release", controller.ReleaseEscrowFunds) // POST /api/v1/payments/:bookingId/release
		admin.GET("/:bookingId/audit", controller.GetAuditTrail)         // GET /api/v1/payments/:bookingId/audit
	}
}
