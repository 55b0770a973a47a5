package httpx

import (
	"github.com/gin-gonic/gin"

	"biblio-backend/internal/platform/apierr"
)

type ErrorDTO struct {
	Error struct {
		Code    apierr.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func ErrorBody(code apierr.Code, msg string) ErrorDTO {
	var e ErrorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

// RenderError writes the structured error body with the mapped status.
func RenderError(c *gin.Context, err error) {
	var msg string
	if api, ok := err.(*apierr.Error); ok {
		msg = api.Message
	} else {
		msg = "unexpected store failure"
	}
	c.JSON(apierr.ToHTTPStatus(err), ErrorBody(apierr.CodeOf(err), msg))
}
