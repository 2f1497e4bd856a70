package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type UserController struct {
	quota *services.QuotaService
}

func NewUserController(quota *services.QuotaService) *UserController {
	return &UserController{quota: quota}
}

// Quota handles GET /users/quota.
func (uc *UserController) Quota(c *gin.Context) {
	account := middleware.AccountID(c)

	ledger, err := uc.quota.Usage(c.Request.Context(), account)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}
