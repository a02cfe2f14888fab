package placements

import (
	"pujasetu/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPlacementRoutes(rg *gin.RouterGroup, controller *Controller) {
	placements := rg.Group("/placements")
	placements.Use(middleware.JWTAuth())
	{
		placements.GET("/:priestId", controller.GetPlacement) // GET /api/v1/placements/:priestId
	}

	manage := rg.Group("/placements")
	manage.Use(middleware.JWTAuth(), middleware.RequireRoles("PRIEST", "ADMIN"))
	{
		manage.POST("/:priestId/extend", controller.ExtendPlacement) // POST /api/v1/placements/:priestId/extend
	}
}
