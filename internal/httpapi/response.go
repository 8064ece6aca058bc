package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/us-matching/internal/errors"
	"github.com/oggyb/us-matching/internal/logger"
)

// Response is the envelope every endpoint answers with. Code is 0 on success
// and the HTTP status otherwise.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

// fail maps a service error onto the envelope. Server-side failures are
// logged with their cause; clients only see a generic message.
func fail(c *gin.Context, err error) {
	code, msg := svcErr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "err", err)
	}
	c.AbortWithStatusJSON(code, Response{Code: code, Message: msg})
}
