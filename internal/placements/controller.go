package placements

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExtendPlacementRequest buys or extends a premium placement.
type ExtendPlacementRequest struct {
	Months int `json:"months" binding:"required,min=1,max=12"`
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ExtendPlacement handles POST /api/v1/placements/:priestId/extend
func (c *Controller) ExtendPlacement(ctx *gin.Context) {
	priestID, err := uuid.Parse(ctx.Param("priestId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priest ID"})
		return
	}

	var req ExtendPlacementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	placement, err := c.service.ExtendPlacement(ctx.Request.Context(), priestID, req.Months)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to extend placement",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Placement extended successfully",
		"data":    placement,
	})
}

// GetPlacement handles GET /api/v1/placements/:priestId
func (c *Controller) GetPlacement(ctx *gin.Context) {
	priestID, err := uuid.Parse(ctx.Param("priestId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priest ID"})
		return
	}

	placement, err := c.service.GetActivePlacement(ctx.Request.Context(), priestID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "No active placement",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Placement retrieved successfully",
		"data":    placement,
	})
}
