package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/lesson-scheduler/internal/httperr"
	"github.com/BruksfildServices01/lesson-scheduler/internal/middleware"
)

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Invalid "+name+".")
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) uint {
	return c.MustGet(middleware.ContextUserID).(uint)
}

func currentSession(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionID)
}
