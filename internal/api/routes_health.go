package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine) {
	r.GET("/health", handlers.Health())
	r.GET("/api/health", handlers.Health())
}
