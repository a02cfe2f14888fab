package cancellation

import (
	"pujasetu/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCancellationRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Priest cancellation policy routes (priest manages their own schedule)
	priests := rg.Group("/priests")
	priests.Use(middleware.JWTAuth(), middleware.RequireRoles("PRIEST", "ADMIN"))
	{
		priests.POST("/:priestId/cancellation-policy", controller.CreatePolicy) // POST /api/v1/priests/:priestId/cancellation-policy
		priests.PUT("/:priestId/cancellation-policy", controller.UpdatePolicy)  // PUT /api/v1/priests/:priestId/cancellation-policy
	}

	// Devotees may read the policy before booking
	public := rg.Group("/priests")
	public.Use(middleware.JWTAuth())
	{
		public.GET("/:priestId/cancellation-policy", controller.GetPolicy) // GET /api/v1/priests/:priestId/cancellation-policy
	}
}
