package payments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pujasetu/internal/escrow"
	"pujasetu/internal/pricing"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateAdvancePayment handles POST /api/v1/payments
func (c *Controller) CreateAdvancePayment(ctx *gin.Context) {
	var req CreatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := c.service.CreateAdvancePayment(ctx.Request.Context(), req)
	if err != nil {
		var splitErr *pricing.InvalidSplitError
		if errors.As(err, &splitErr) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Invalid payment split",
				"details": splitErr.Reason,
			})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create payment",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Payment created successfully",
		"data":    response,
	})
}

// ConfirmPayment handles POST /api/v1/payments/:bookingId/confirm
func (c *Controller) ConfirmPayment(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := c.service.ConfirmPayment(ctx.Request.Context(), bookingID, req)
	if err != nil {
		respondTransitionError(ctx, "Failed to confirm payment", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed and held in escrow",
		"data":    response,
	})
}

// ReleaseEscrowFunds handles POST /api/v1/payments/:bookingId/release
func (c *Controller) ReleaseEscrowFunds(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	actor := "admin"
	if userID, exists := ctx.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			actor = userIDStr
		}
	}

	response, err := c.service.ReleaseEscrowFunds(ctx.Request.Context(), bookingID, actor)
	if err != nil {
		respondTransitionError(ctx, "Failed to release escrow", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Escrow released successfully",
		"data":    response,
	})
}

// ProcessRefund handles POST /api/v1/payments/:bookingId/refund
func (c *Controller) ProcessRefund(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := c.service.ProcessCancellationRefund(ctx.Request.Context(), bookingID, req)
	if err != nil {
		respondTransitionError(ctx, "Failed to process refund", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Refund processed successfully",
		"data":    response,
	})
}

// CompleteService handles POST /api/v1/payments/:bookingId/complete
func (c *Controller) CompleteService(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	actor := "priest"
	if userID, exists := ctx.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			actor = userIDStr
		}
	}

	if err := c.service.CompleteService(ctx.Request.Context(), bookingID, actor); err != nil {
		respondTransitionError(ctx, "Failed to complete service", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Service marked completed",
		"data":    gin.H{"booking_id": bookingID},
	})
}

// GetPayment handles GET /api/v1/payments/:bookingId
func (c *Controller) GetPayment(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	response, err := c.service.GetPayment(ctx.Request.Context(), bookingID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Payment not found",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Payment retrieved successfully",
		"data":    response,
	})
}

// GetAuditTrail handles GET /api/v1/payments/:bookingId/audit
func (c *Controller) GetAuditTrail(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	trail, err := c.service.GetAuditTrail(ctx.Request.Context(), bookingID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Audit trail not found",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Audit trail retrieved successfully",
		"data": gin.H{
			"entries": trail,
			"count":   len(trail),
		},
	})
}

// respondTransitionError maps ledger conflicts to HTTP statuses: illegal
// transitions are 409s, concurrent writes ask the client to retry.
func respondTransitionError(ctx *gin.Context, message string, err error) {
	var stateErr *escrow.InvalidStateTransitionError
	if errors.As(err, &stateErr) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   message,
			"details": stateErr.Error(),
		})
		return
	}
	if errors.Is(err, escrow.ErrConcurrentModification) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Payment record changed concurrently, please retry",
			"details": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
