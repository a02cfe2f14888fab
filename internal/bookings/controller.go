package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetBooking handles GET /api/v1/bookings/:bookingId
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Booking not found",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// ConfirmBooking handles POST /api/v1/bookings/:bookingId/confirm
// Confirming locks the agreed price; payment can then be created.
func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("bookingId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := c.service.ConfirmBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to confirm booking",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking confirmed",
		"data":    booking,
	})
}
