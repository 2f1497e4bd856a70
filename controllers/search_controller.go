package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type SearchController struct {
	search *services.SearchService
	stars  *services.StarService
	trash  *services.TrashService
}

func NewSearchController(search *services.SearchService, stars *services.StarService, trash *services.TrashService) *SearchController {
	return &SearchController{search: search, stars: stars, trash: trash}
}

type starToggleRequest struct {
	ResourceType string `json:"resourceType" binding:"required"`
	ResourceID   string `json:"resourceId" binding:"required"`
}

// Search handles GET /search?q=.
func (sc *SearchController) Search(c *gin.Context) {
	owner := middleware.AccountID(c)

	result, err := sc.search.Search(c.Request.Context(), owner, c.Query("q"))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recent handles GET /search/recent.
func (sc *SearchController) Recent(c *gin.Context) {
	owner := middleware.AccountID(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	files, err := sc.search.Recent(c.Request.Context(), owner, limit)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// ToggleStar handles POST /search/star.
func (sc *SearchController) ToggleStar(c *gin.Context) {
	owner := middleware.AccountID(c)

	var req starToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	resourceID, err := primitive.ObjectIDFromHex(req.ResourceID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid resource id")
		return
	}

	starred, err := sc.stars.Toggle(c.Request.Context(), owner, req.ResourceType, resourceID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": starred})
}

// Starred handles GET /search/starred.
func (sc *SearchController) Starred(c *gin.Context) {
	owner := middleware.AccountID(c)

	items, err := sc.stars.Starred(c.Request.Context(), owner)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stars": items})
}

// Trash handles GET /search/trash.
func (sc *SearchController) Trash(c *gin.Context) {
	owner := middleware.AccountID(c)

	contents, err := sc.trash.List(c.Request.Context(), owner)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

// RestoreFromTrash handles POST /search/trash/restore/:type/:id.
func (sc *SearchController) RestoreFromTrash(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid id")
		return
	}

	if err := sc.trash.Restore(c.Request.Context(), owner, c.Param("type"), id); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// PurgeFromTrash handles DELETE /search/trash/:type/:id.
func (sc *SearchController) PurgeFromTrash(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid id")
		return
	}

	if err := sc.trash.Purge(c.Request.Context(), owner, c.Param("type"), id); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
