package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterShareRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	shareController := controllers.NewShareController(container.Shares)

	shares := rg.Group("/shares")
	shares.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		shares.POST("", shareController.Share)
	}
}
