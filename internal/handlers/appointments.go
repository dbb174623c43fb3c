package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/response"
)

// AppointmentHandler exposes the nutritionist's agenda endpoints.
type AppointmentHandler struct {
	service       *services.AppointmentService
	nutritionists *services.NutritionistService
}

// NewAppointmentHandler constructs an appointment handler.
func NewAppointmentHandler(db *gorm.DB, notifications *services.NotificationService) (*AppointmentHandler, error) {
	service, err := services.NewAppointmentService(db, notifications)
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
	return &AppointmentHandler{service: service, nutritionists: nutritionists}, nil
}

// Create books an appointment and schedules its reminders.
func (h *AppointmentHandler) Create(c *gin.Context) {
	actorUserID := c.GetString(middleware.CtxUserIDKey)
	if actorUserID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		NutritionistID string    `json:"nutritionist_id" validate:"required"`
		PatientID      string    `json:"patient_id" validate:"required"`
		ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
		LeadMinutes    []int     `json:"lead_minutes" validate:"dive,gte=0"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	dto, err := h.service.Create(requestContext(c), services.CreateAppointmentInput{
		ActorUserID:    actorUserID,
		NutritionistID: payload.NutritionistID,
		PatientID:      payload.PatientID,
		ScheduledAt:    payload.ScheduledAt,
		LeadMinutes:    payload.LeadMinutes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// List returns the acting nutritionist's agenda filtered by type.
func (h *AppointmentHandler) List(c *gin.Context) {
	personID := c.GetString(middleware.CtxPersonIDKey)
	if personID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	nutritionist, err := h.nutritionists.GetByPersonID(requestContext(c), personID)
	if err != nil {
		response.Error(c, err)
		return
	}

	queryType := services.AppointmentQueryType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	if queryType == "" {
		queryType = services.AppointmentScheduled
	}

	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.service.ListForNutritionist(requestContext(c), services.ListAppointmentsInput{
		NutritionistID: nutritionist.ID,
		Type:           queryType,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// Cancel marks an appointment as canceled. The row itself is kept.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actorUserID := c.GetString(middleware.CtxUserIDKey)
	if actorUserID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Cancel(requestContext(c), actorUserID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"canceled": true})
}
