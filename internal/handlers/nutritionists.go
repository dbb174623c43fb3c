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

// NutritionistHandler exposes nutritionist registration and profile endpoints.
type NutritionistHandler struct {
	service *services.NutritionistService
}

// NewNutritionistHandler constructs a nutritionist handler.
func NewNutritionistHandler(db *gorm.DB) (*NutritionistHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	service, err := services.NewNutritionistService(db, users)
	if err != nil {
		return nil, err
	}
	return &NutritionistHandler{service: service}, nil
}

// Register creates a nutritionist account. The endpoint is public: it is how
// a clinic owner joins the platform.
func (h *NutritionistHandler) Register(c *gin.Context) {
	var payload struct {
		Name         string    `json:"name" validate:"required"`
		CPF          string    `json:"cpf" validate:"required,cpf"`
		BirthdayDate time.Time `json:"birthday_date" validate:"required"`
		CRN          string    `json:"crn" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	dto, err := h.service.Register(requestContext(c), services.RegisterNutritionistInput{
		Name:         payload.Name,
		CPF:          payload.CPF,
		BirthdayDate: payload.BirthdayDate,
		CRN:          payload.CRN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// Me returns the acting nutritionist's profile.
func (h *NutritionistHandler) Me(c *gin.Context) {
	personID := c.GetString(middleware.CtxPersonIDKey)
	if personID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	nutritionist, err := h.service.GetByPersonID(requestContext(c), personID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nutritionist)
}

// Get returns a nutritionist by id.
func (h *NutritionistHandler) Get(c *gin.Context) {
	nutritionist, err := h.service.GetByID(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, nutritionist)
}
