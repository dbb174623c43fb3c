package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/models"
)

func registerAppointmentRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) error {
	handler, err := handlers.NewAppointmentHandler(deps.DB, deps.Notifications)
	if err != nil {
		return err
	}

	appointments := r.Group("/api/appointments")
	appointments.Use(requireAuth, middleware.RequireRole(models.RoleNutritionist))
	{
		appointments.POST("", handler.Create)
		appointments.GET("", handler.List)
		appointments.POST("/:id/cancel", handler.Cancel)
	}

	return nil
}
