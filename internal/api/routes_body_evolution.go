package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/models"
)

func registerBodyEvolutionRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) error {
	handler, err := handlers.NewBodyEvolutionHandler(deps.DB, deps.Store, deps.Config.Storage.PublicBaseURL)
	if err != nil {
		return err
	}

	bodyEvolutions := r.Group("/api/body-evolutions")
	bodyEvolutions.Use(requireAuth, middleware.RequireRole(models.RolePatient))
	{
		bodyEvolutions.POST("", handler.Upload)
		bodyEvolutions.GET("", handler.List)
		bodyEvolutions.DELETE("/:id", handler.Delete)
	}

	return nil
}
