package bookings

import (
	"pujasetu/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	group := rg.Group("/bookings")
	group.Use(middleware.JWTAuth())
	{
		group.GET("/:bookingId", controller.GetBooking)              // GET /api/v1/bookings/:bookingId
		group.POST("/:bookingId/confirm", controller.ConfirmBooking) // POST /api/v1/bookings/:bookingId/confirm
	}
}
