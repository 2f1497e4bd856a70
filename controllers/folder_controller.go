package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type FolderController struct {
	folders *services.FolderService
	trash   *services.TrashService
}

func NewFolderController(folders *services.FolderService, trash *services.TrashService) *FolderController {
	return &FolderController{folders: folders, trash: trash}
}

type createFolderRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
}

type patchNodeRequest struct {
	Name      *string `json:"name"`
	ParentID  *string `json:"parentId"`
	IsDeleted *bool   `json:"isDeleted"`
}

// CreateFolder handles POST /folders.
func (fc *FolderController) CreateFolder(c *gin.Context) {
	owner := middleware.AccountID(c)

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	parentID, ok := parseOptionalID(c, req.ParentID)
	if !ok {
		return
	}

	folder, err := fc.folders.Create(c.Request.Context(), owner, req.Name, parentID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// GetFolder handles GET /folders/:id. The id "root" lists the account's
// top level.
func (fc *FolderController) GetFolder(c *gin.Context) {
	owner := middleware.AccountID(c)

	var folderID *primitive.ObjectID
	if idParam := c.Param("id"); idParam != "root" {
		id, err := primitive.ObjectIDFromHex(idParam)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid folder id")
			return
		}
		folderID = &id
	}

	contents, err := fc.folders.Contents(c.Request.Context(), owner, folderID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

// GetPath handles GET /folders/:id/path, the breadcrumb.
func (fc *FolderController) GetPath(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	path, err := fc.folders.Path(c.Request.Context(), owner, id)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

// PatchFolder handles PATCH /folders/:id: rename, move, trash or restore
// depending on which fields the body carries.
func (fc *FolderController) PatchFolder(c *gin.Context) {
	owner := middleware.AccountID(c)
	ctx := c.Request.Context()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid folder id")
		return
	}

	var req patchNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.IsDeleted != nil {
		if *req.IsDeleted {
			err = fc.trash.Trash(ctx, owner, "folder", id)
		} else {
			err = fc.trash.Restore(ctx, owner, "folder", id)
		}
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}
	if req.Name != nil {
		if _, err := fc.folders.Rename(ctx, owner, id, *req.Name); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}
	if req.ParentID != nil {
		parentID, ok := parseOptionalID(c, req.ParentID)
		if !ok {
			return
		}
		if _, err := fc.folders.Move(ctx, owner, id, parentID); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// parseOptionalID turns an optional id string into a parent reference.
// Nil, empty and "root" all mean the top level. Returns ok=false after
// writing the error response.
func parseOptionalID(c *gin.Context, raw *string) (*primitive.ObjectID, bool) {
	if raw == nil || *raw == "" || *raw == "root" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid parent id")
		return nil, false
	}
	return &id, true
}
