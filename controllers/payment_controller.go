package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/middleware"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type PaymentController struct {
	billing *services.BillingService
}

func NewPaymentController(billing *services.BillingService) *PaymentController {
	return &PaymentController{billing: billing}
}

type initiatePaymentRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

type failPaymentRequest struct {
	Reason string `json:"reason"`
}

// Plans handles GET /payments/plans.
func (pc *PaymentController) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, services.Plans)
}

// Initiate handles POST /payments/initiate.
func (pc *PaymentController) Initiate(c *gin.Context) {
	account := middleware.AccountID(c)

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := pc.billing.Initiate(c.Request.Context(), account, req.PlanID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// Confirm handles POST /payments/confirm/:id.
func (pc *PaymentController) Confirm(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := pc.billing.Confirm(c.Request.Context(), id)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Fail handles POST /payments/fail/:id.
func (pc *PaymentController) Fail(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req failPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := pc.billing.Fail(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// History handles GET /payments/history.
func (pc *PaymentController) History(c *gin.Context) {
	account := middleware.AccountID(c)

	history, err := pc.billing.History(c.Request.Context(), account)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
