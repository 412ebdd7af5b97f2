package middleware

import (
	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// abortWithError stops the chain with the standard error envelope
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
