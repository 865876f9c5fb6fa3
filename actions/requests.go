package actions

import (
	"net/http"
	"strconv"

	"github.com/ericlagergren/decimal"
	"github.com/gin-gonic/gin"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

type createRequestPayload struct {
	Type           model.RequestType `form:"type" json:"type" binding:"required"`
	Amount         string            `form:"amount" json:"amount"`
	TargetVipLevel *int              `form:"target_vip_level" json:"target_vip_level"`
}

// CreateRequest submit a purchase, upgrade or withdrawal request
func (actions *Actions) CreateRequest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var payload createRequestPayload
	if err := c.ShouldBind(&payload); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !payload.Type.IsValid() {
		abortWithError(c, http.StatusBadRequest, "Invalid request type")
		return
	}

	var amount *decimal.Big
	if payload.Amount != "" {
		amount = conv.NewMoneyFromString(payload.Amount)
		if amount == nil {
			abortWithError(c, http.StatusBadRequest, "Invalid amount")
			return
		}
	}

	request, err := actions.service.CreateRequest(payload.Type, userID, amount, payload.TargetVipLevel)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// GetRequest load one request; only the requester or an admin may read it
func (actions *Actions) GetRequest(c *gin.Context) {
	request, err := actions.service.GetRequest(c.Param("request_id"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	if c.GetHeader("X-Admin-Id") != "" {
		c.JSON(http.StatusOK, request)
		return
	}
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if userID != request.RequesterID {
		abortWithError(c, http.StatusForbidden, "Not the requester")
		return
	}
	c.JSON(http.StatusOK, request)
}

// GetUserRequests the acting user's own requests, newest first
func (actions *Actions) GetUserRequests(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	requests, err := actions.service.GetUserRequests(userID, limit)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// CancelRequest withdraw a request while it is still pending
func (actions *Actions) CancelRequest(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	request, err := actions.service.CancelRequest(c.Param("request_id"), userID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type settlePayload struct {
	Decision model.Decision `form:"decision" json:"decision" binding:"required"`
	Notes    string         `form:"notes" json:"notes"`
}

// Settle execute an admin decision on an assigned request
func (actions *Actions) Settle(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var payload settlePayload
	if err := c.ShouldBind(&payload); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid settle payload")
		return
	}
	if !payload.Decision.IsValid() {
		abortWithError(c, http.StatusBadRequest, "Invalid decision")
		return
	}

	result, err := actions.service.Settle(c.Param("request_id"), adminID, payload.Decision, payload.Notes)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
