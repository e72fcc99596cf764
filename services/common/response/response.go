// Package response writes the JSON envelope shared by every service:
// {"success": bool, "message": string, "data"|"error": ...}.
package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/logger"
)

// Body is the envelope written by Success and Error.
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success writes a successful response.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Body{Success: true, Message: message, Data: data})
}

// Error maps err to its HTTP status and writes a failure envelope. Known
// application errors expose their own message; anything else is reported as
// message with fallback as the error detail.
func Error(c *gin.Context, err error, message, fallback string) {
	appErr := apperrors.From(err)

	switch appErr.Kind {
	case apperrors.KindInternal, apperrors.KindStorage:
		logger.WithRequest(c, zap.L()).Error(message,
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(appErr.Code, Body{Success: false, Message: message, Error: fallback})
	default:
		c.JSON(appErr.Code, Body{Success: false, Message: appErr.Message, Error: fallback})
	}
}

// Fail writes a failure envelope with an explicit status, for request errors
// detected before any service call.
func Fail(c *gin.Context, status int, message, detail string) {
	c.JSON(status, Body{Success: false, Message: message, Error: detail})
}
