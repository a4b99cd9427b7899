package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spachava753/smskit/sms"
)

// Response is the JSON envelope of every endpoint.
type Response struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

const (
	CodeOK         = "OK"
	CodeBadRequest = "BAD_REQUEST"
	CodeTimeout    = "TIMEOUT"
	CodeInternal   = "INTERNAL_ERROR"
)

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Msg: "ok", Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: CodeBadRequest, Msg: msg})
}

// failure maps a service error onto a status and envelope.
func failure(c *gin.Context, err error) {
	var smsErr *sms.Error
	switch {
	case errors.As(err, &smsErr):
		status := http.StatusBadGateway
		if smsErr.Code == sms.CodePermissionDenied {
			status = http.StatusForbidden
		}
		c.JSON(status, Response{Code: string(smsErr.Code), Msg: smsErr.Message})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, Response{Code: CodeTimeout, Msg: "operation timed out"})
	default:
		c.JSON(http.StatusInternalServerError, Response{Code: CodeInternal, Msg: err.Error()})
	}
}
