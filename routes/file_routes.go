package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFileRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	fileController := controllers.NewFileController(container.Files, container.Trash)

	files := rg.Group("/files")
	files.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		files.POST("/upload-url", fileController.RequestUpload) // phase one: provisional record + upload endpoint
		files.PUT("/:id/blob", fileController.UploadBlob)       // the bytes, proxied into blob storage
		files.POST("/confirm", fileController.ConfirmUpload)    // phase two: activate + reserve quota
		files.PATCH("/:id", fileController.PatchFile)
		files.POST("/:id/content", fileController.ReplaceContent)
		files.GET("/:id/download", fileController.Download)
	}
}
