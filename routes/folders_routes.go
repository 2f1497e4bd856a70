package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFolderRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	folderController := controllers.NewFolderController(container.Folders, container.Trash)

	folders := rg.Group("/folders")
	folders.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		folders.POST("", folderController.CreateFolder)    // POST /folders
		folders.GET("/:id", folderController.GetFolder)    // GET /folders/:id ("root" lists the top level)
		folders.GET("/:id/path", folderController.GetPath) // GET /folders/:id/path
		folders.PATCH("/:id", folderController.PatchFolder)
	}
}
