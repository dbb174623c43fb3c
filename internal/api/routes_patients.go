package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/models"
)

func registerPatientRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) error {
	handler, err := handlers.NewPatientHandler(deps.DB)
	if err != nil {
		return err
	}
	guidanceHandler, err := handlers.NewGuidanceHandler(deps.DB, deps.Notifications)
	if err != nil {
		return err
	}

	patients := r.Group("/api/patients")
	patients.Use(requireAuth, middleware.RequireRole(models.RoleNutritionist))
	{
		patients.POST("", handler.Register)
		patients.GET("", handler.List)
		patients.GET("/:id", handler.Get)

		patients.PUT("/:id/clinical-evaluation", handler.SaveClinicalEvaluation)
		patients.POST("/:id/anthropometric-evaluations", handler.AddAnthropometricEvaluation)
		patients.POST("/:id/biochemical-evaluations", handler.AddBiochemicalEvaluation)

		patients.POST("/:id/food-consumptions", handler.AddFoodConsumption)
		patients.GET("/:id/food-consumptions", handler.ListFoodConsumptions)

		patients.POST("/:id/guidances", guidanceHandler.Create)
		patients.GET("/:id/guidances", guidanceHandler.List)
	}

	return nil
}
