package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
)

func registerNotificationRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) {
	handler := handlers.NewNotificationHandler(deps.Notifications, deps.Hub, deps.JWT)

	// The stream authenticates through its token query parameter because
	// browsers cannot set headers on WebSocket dials.
	r.GET("/api/notifications/stream", handler.Stream)

	notificationsGroup := r.Group("/api/notifications")
	notificationsGroup.Use(requireAuth)
	{
		notificationsGroup.GET("", handler.List)
	}
}
