package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API reply is wrapped in.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponse writes a 200 envelope around extras.
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, extras))
}

// ErrorResponse writes a failed envelope carrying message.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, errorEnvelope(code, message))
}

// AbortWithError stops the handler chain with a failed envelope.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorEnvelope(code, message))
}

func errorEnvelope(code int, message string) Response {
	return NewResponse(false, code, gin.H{"message": message})
}
