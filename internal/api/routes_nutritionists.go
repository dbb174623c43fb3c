package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/models"
)

func registerNutritionistRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) error {
	handler, err := handlers.NewNutritionistHandler(deps.DB)
	if err != nil {
		return err
	}

	// Registration is public: this is how a nutritionist joins the platform.
	r.POST("/api/nutritionists", handler.Register)

	nutritionists := r.Group("/api/nutritionists")
	nutritionists.Use(requireAuth)
	{
		nutritionists.GET("/me", middleware.RequireRole(models.RoleNutritionist), handler.Me)
		nutritionists.GET("/:id", handler.Get)
	}

	return nil
}
