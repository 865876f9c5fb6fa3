package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dawita19/earnmax-sub001/model"
)

// Register create a new account, resolving the invite code when present
func (actions *Actions) Register(c *gin.Context) {
	var payload model.RegistrationRequest
	if err := c.ShouldBind(&payload); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	user, err := actions.service.Register(&payload)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetReferralStats per-level invite counts and the accumulated bonus total
func (actions *Actions) GetReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := actions.service.GetReferralStats(userID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
