package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutriconsultas/backend/pkg/logger"
	"github.com/nutriconsultas/backend/pkg/response"
)

// Recovery turns a handler panic into a 500 without leaking the panic value
// to the client.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("http")

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log.Error("panic recovered",
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Error: &response.ErrorInfo{
					Code:    "INTERNAL_SERVER_ERROR",
					Message: "Internal server error",
				},
			})
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with a JSON body instead of gin's
// plain-text default.
func NotFoundHandler(c *gin.Context) {
	response.Success(c, http.StatusNotFound, gin.H{"error": fmt.Sprintf("route %s not found", c.Request.URL.Path)})
}
