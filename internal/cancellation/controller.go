package cancellation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Controller handles HTTP requests for cancellation policies
type Controller struct {
	service Service
}

// NewController creates a new cancellation controller
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreatePolicy handles POST /api/v1/priests/:priestId/cancellation-policy
func (c *Controller) CreatePolicy(ctx *gin.Context) {
	priestID, err := uuid.Parse(ctx.Param("priestId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priest ID"})
		return
	}

	var req PolicyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	policy, err := c.service.CreatePolicy(ctx.Request.Context(), priestID, req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create cancellation policy",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Cancellation policy created successfully",
		"data":    policy,
	})
}

// GetPolicy handles GET /api/v1/priests/:priestId/cancellation-policy
func (c *Controller) GetPolicy(ctx *gin.Context) {
	priestID, err := uuid.Parse(ctx.Param("priestId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priest ID"})
		return
	}

	policy, err := c.service.GetPolicy(ctx.Request.Context(), priestID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Cancellation policy not found",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Cancellation policy retrieved successfully",
		"data":    policy,
	})
}

// UpdatePolicy handles PUT /api/v1/priests/:priestId/cancellation-policy
func (c *Controller) UpdatePolicy(ctx *gin.Context) {
	priestID, err := uuid.Parse(ctx.Param("priestId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priest ID"})
		return
	}

	var req PolicyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	policy, err := c.service.UpdatePolicy(ctx.Request.Context(), priestID, req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update cancellation policy",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Cancellation policy updated successfully",
		"data":    policy,
	})
}
