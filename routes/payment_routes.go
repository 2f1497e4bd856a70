package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterPaymentRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	paymentController := controllers.NewPaymentController(container.Billing)

	payments := rg.Group("/payments")
	payments.Use(middleware.AuthMiddleware(container.JWTSecret))
	{
		payments.GET("/plans", paymentController.Plans)
		payments.POST("/initiate", paymentController.Initiate)
		payments.POST("/confirm/:id", paymentController.Confirm)
		payments.POST("/fail/:id", paymentController.Fail)
		payments.GET("/history", paymentController.History)
	}
}
