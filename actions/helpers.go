package actions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dawita19/earnmax-sub001/logger"
	"github.com/dawita19/earnmax-sub001/model"
)

// RequestError standard json error body
type RequestError struct {
	Error string `json:"error"`
}

// Ping godoc
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, "pong")
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, RequestError{Error: message})
}

// abortWithDomainError map an engine error to its HTTP status
func abortWithDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrRequestNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrTaskNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrStaleAssignment),
		errors.Is(err, model.ErrRequestNotPending),
		errors.Is(err, model.ErrTaskAlreadyClaimed):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrVipLevelUnknown),
		errors.Is(err, model.ErrVipLevelNotHigher),
		errors.Is(err, model.ErrWithdrawalLimit):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}

// getUserID the acting user, set by the upstream auth layer
func getUserID(c *gin.Context) (uint64, bool) {
	return headerID(c, "X-User-Id")
}

// getAdminID the acting admin, set by the upstream auth layer
func getAdminID(c *gin.Context) (uint64, bool) {
	return headerID(c, "X-Admin-Id")
}

func headerID(c *gin.Context, header string) (uint64, bool) {
	raw := c.GetHeader(header)
	if raw == "" {
		abortWithError(c, http.StatusUnauthorized, "Missing "+header+" header")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusUnauthorized, "Invalid "+header+" header")
		return 0, false
	}
	if header == "X-User-Id" {
		c.Set("auth_user_id", id)
	}
	return id, true
}
