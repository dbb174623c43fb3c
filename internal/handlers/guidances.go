package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/response"
)

// GuidanceHandler exposes nutritional guidance endpoints.
type GuidanceHandler struct {
	service       *services.GuidanceService
	nutritionists *services.NutritionistService
}

// NewGuidanceHandler constructs a guidance handler.
func NewGuidanceHandler(db *gorm.DB, notifications *services.NotificationService) (*GuidanceHandler, error) {
	service, err := services.NewGuidanceService(db, notifications)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	nutritionists, err := services.NewNutritionistService(db, users)
	if err != nil {
		return nil, err
	}
	return &GuidanceHandler{service: service, nutritionists: nutritionists}, nil
}

// Create records guidance for a patient and notifies them.
func (h *GuidanceHandler) Create(c *gin.Context) {
	personID := c.GetString(middleware.CtxPersonIDKey)
	if personID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		NutritionalGuidance string `json:"nutritional_guidance" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	nutritionist, err := h.nutritionists.GetByPersonID(requestContext(c), personID)
	if err != nil {
		response.Error(c, err)
		return
	}

	guidance, err := h.service.Create(requestContext(c), services.CreateGuidanceInput{
		NutritionistID:      nutritionist.ID,
		PatientID:           strings.TrimSpace(c.Param("id")),
		NutritionalGuidance: payload.NutritionalGuidance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, guidance)
}

// List pages through a patient's guidance history.
func (h *GuidanceHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	rows, total, err := h.service.ListByPatient(requestContext(c), strings.TrimSpace(c.Param("id")), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, rows, &response.Meta{
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}
