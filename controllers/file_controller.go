package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type FileController struct {
	files *services.FileService
	trash *services.TrashService
}

func NewFileController(files *services.FileService, trash *services.TrashService) *FileController {
	return &FileController{files: files, trash: trash}
}

type uploadURLRequest struct {
	FileName string  `json:"fileName" binding:"required"`
	FileSize int64   `json:"fileSize"`
	ParentID *string `json:"parentId"`
}

type confirmUploadRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

type replaceContentRequest struct {
	FileSize int64 `json:"fileSize"`
}

// RequestUpload handles POST /files/upload-url, the first upload phase.
func (fc *FileController) RequestUpload(c *gin.Context) {
	owner := middleware.AccountID(c)

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	parentID, ok := parseOptionalID(c, req.ParentID)
	if !ok {
		return
	}

	ticket, err := fc.files.RequestUpload(c.Request.Context(), owner, req.FileName, req.FileSize, parentID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// UploadBlob handles PUT /files/:id/blob: the raw bytes between the two
// phases, streamed through to blob storage.
func (fc *FileController) UploadBlob(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid file id")
		return
	}

	if err := fc.files.UploadBlob(c.Request.Context(), owner, id, c.Request.Body); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// ConfirmUpload handles POST /files/confirm, the second upload phase.
func (fc *FileController) ConfirmUpload(c *gin.Context) {
	owner := middleware.AccountID(c)

	var req confirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	fileID, err := primitive.ObjectIDFromHex(req.FileID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid file id")
		return
	}

	file, err := fc.files.ConfirmUpload(c.Request.Context(), owner, fileID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// PatchFile handles PATCH /files/:id: rename, move, trash or restore
// depending on which fields the body carries.
func (fc *FileController) PatchFile(c *gin.Context) {
	owner := middleware.AccountID(c)
	ctx := c.Request.Context()

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid file id")
		return
	}

	var req patchNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.IsDeleted != nil {
		if *req.IsDeleted {
			err = fc.trash.Trash(ctx, owner, "file", id)
		} else {
			err = fc.trash.Restore(ctx, owner, "file", id)
		}
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}
	if req.Name != nil {
		if _, err := fc.files.Rename(ctx, owner, id, *req.Name); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}
	if req.ParentID != nil {
		parentID, ok := parseOptionalID(c, req.ParentID)
		if !ok {
			return
		}
		if _, err := fc.files.Move(ctx, owner, id, parentID); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// ReplaceContent handles POST /files/:id/content. It issues a fresh
// upload ticket for the new bytes.
func (fc *FileController) ReplaceContent(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid file id")
		return
	}

	var req replaceContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := fc.files.ReplaceContent(c.Request.Context(), owner, id, req.FileSize)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Download handles GET /files/:id/download and returns a signed URL.
func (fc *FileController) Download(c *gin.Context) {
	owner := middleware.AccountID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid file id")
		return
	}

	url, err := fc.files.DownloadURL(c.Request.Context(), owner, id)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
