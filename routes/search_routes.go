package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterSearchRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	searchController := controllers.NewSearchController(container.Search, container.Stars, container.Trash)

	search := rg.Group("/search")
	search.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		search.GET("", searchController.Search)        // GET /search?q=
		search.GET("/recent", searchController.Recent) // GET /search/recent
		search.POST("/star", searchController.ToggleStar)
		search.GET("/starred", searchController.Starred)
		search.GET("/trash", searchController.Trash)
		search.POST("/trash/restore/:type/:id", searchController.RestoreFromTrash)
		search.DELETE("/trash/:type/:id", searchController.PurgeFromTrash)
	}
}
