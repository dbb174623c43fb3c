package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutriconsultas/backend/internal/handlers"
	"github.com/nutriconsultas/backend/internal/middleware"
)

func registerAuthRoutes(r *gin.Engine, deps Deps, requireAuth gin.HandlerFunc) error {
	handler, err := handlers.NewAuthHandler(deps.DB, deps.JWT, deps.Mailer)
	if err != nil {
		return err
	}

	// Public auth routes. Recovery endpoints get a tighter rate limit so the
	// reset-code space cannot be probed.
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", handler.Login)
		auth.POST("/forgot-password", middleware.RateLimit(5, time.Minute), handler.ForgotPassword)
		auth.POST("/check-reset-code", middleware.RateLimit(10, time.Minute), handler.CheckResetCode)
		auth.POST("/reset-password", middleware.RateLimit(10, time.Minute), handler.ResetPassword)
		auth.GET("/first-access/:cpf", handler.FirstAccessCheck)
		auth.POST("/first-access", handler.FirstAccessSetup)
	}

	// Authenticated auth routes
	authed := r.Group("/api/auth")
	authed.Use(requireAuth)
	{
		authed.GET("/me", handler.Me)
		authed.POST("/check-in", handler.CheckIn)
	}

	return nil
}
