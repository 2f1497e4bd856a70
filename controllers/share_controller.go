package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type ShareController struct {
	shares services.ShareService
}

func NewShareController(shares services.ShareService) *ShareController {
	return &ShareController{shares: shares}
}

type shareRequest struct {
	ResourceType string `json:"resourceType" binding:"required"`
	ResourceID   string `json:"resourceId" binding:"required"`
	Principal    string `json:"principal" binding:"required"`
}

// Share handles POST /shares.
func (sc *ShareController) Share(c *gin.Context) {
	owner := middleware.AccountID(c)

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	resourceID, err := primitive.ObjectIDFromHex(req.ResourceID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid resource id")
		return
	}

	grant, err := sc.shares.Share(c.Request.Context(), owner, req.ResourceType, resourceID, req.Principal)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}
