package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterUserRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	userController := controllers.NewUserController(container.Quota)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		users.GET("/quota", userController.Quota)
	}
}
