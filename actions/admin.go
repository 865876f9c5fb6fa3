package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAdminQueue the requests currently under review by the acting admin
func (actions *Actions) GetAdminQueue(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	requests, err := actions.service.GetAdminQueue(adminID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

type adminActivePayload struct {
	Active *bool `form:"active" json:"active" binding:"required"`
}

// SetAdminActive flip the acting admin in or out of the dispatch rotation
func (actions *Actions) SetAdminActive(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var payload adminActivePayload
	if err := c.ShouldBind(&payload); err != nil || payload.Active == nil {
		abortWithError(c, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := actions.service.SetAdminActive(adminID, *payload.Active); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin_id": adminID, "active": *payload.Active})
}
