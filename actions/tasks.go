package actions

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ClaimTask complete a daily task and collect its earning
func (actions *Actions) ClaimTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid task id")
		return
	}

	result, err := actions.service.CompleteTask(userID, taskID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUserTasks today's tasks for the acting user
func (actions *Actions) GetUserTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tasks, err := actions.service.UserTasks(userID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
