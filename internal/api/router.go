package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/app"
	iauth "github.com/nutriconsultas/backend/internal/auth"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/notifications"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/internal/storage"
	"github.com/nutriconsultas/backend/pkg/mail"
)

// Deps bundles everything the router needs. The notification service is
// shared with the background scheduler, so it is injected rather than built
// here.
type Deps struct {
	DB            *gorm.DB
	JWT           *iauth.JWTService
	Config        *app.Config
	Notifications *services.NotificationService
	Hub           *notifications.Hub
	Mailer        mail.Mailer
	Store         storage.Store
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Notifications == nil {
		return nil, fmt.Errorf("notification service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	if deps.Config.Monitoring.Health.Enabled {
		registerHealthRoutes(r)
	}

	requireAuth := middleware.Auth(deps.JWT)

	if err := registerAuthRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}
	if err := registerNutritionistRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}
	if err := registerAppointmentRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}
	if err := registerPatientRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}
	if err := registerBodyEvolutionRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}
	registerNotificationRoutes(r, deps, requireAuth)

	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := deps.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
