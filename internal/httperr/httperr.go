package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextErrorCode holds the error_code of the response, for request logs.
const ContextErrorCode = "errorCode"

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// Write aborts the chain so later handlers never write a second body.
func Write(c *gin.Context, status int, code, message string) {
	c.Set(ContextErrorCode, code)
	c.AbortWithStatusJSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}
