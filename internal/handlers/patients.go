package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/response"
)

// PatientHandler exposes patient profiles and their clinical records.
type PatientHandler struct {
	service *services.PatientService
}

// NewPatientHandler constructs a patient handler.
func NewPatientHandler(db *gorm.DB) (*PatientHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	service, err := services.NewPatientService(db, users)
	if err != nil {
		return nil, err
	}
	return &PatientHandler{service: service}, nil
}

// Register creates a patient profile together with its account shell.
func (h *PatientHandler) Register(c *gin.Context) {
	var payload struct {
		Name         string    `json:"name" validate:"required"`
		CPF          string    `json:"cpf" validate:"required,cpf"`
		BirthdayDate time.Time `json:"birthday_date" validate:"required"`

		Sex               string `json:"sex"`
		Gender            string `json:"gender"`
		CivilStatus       string `json:"civil_status"`
		Nationality       string `json:"nationality"`
		Naturality        string `json:"naturality"`
		Ethnicity         string `json:"ethnicity"`
		Schooling         string `json:"schooling"`
		Profession        string `json:"profession"`
		CompleteAddress   string `json:"complete_address"`
		HistoryWeightGain string `json:"history_weight_gain"`
		PhoneNumber       string `json:"phone_number"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	dto, err := h.service.Register(requestContext(c), services.RegisterPatientInput{
		Name:              payload.Name,
		CPF:               payload.CPF,
		BirthdayDate:      payload.BirthdayDate,
		Sex:               payload.Sex,
		Gender:            payload.Gender,
		CivilStatus:       payload.CivilStatus,
		Nationality:       payload.Nationality,
		Naturality:        payload.Naturality,
		Ethnicity:         payload.Ethnicity,
		Schooling:         payload.Schooling,
		Profession:        payload.Profession,
		CompleteAddress:   payload.CompleteAddress,
		HistoryWeightGain: payload.HistoryWeightGain,
		PhoneNumber:       payload.PhoneNumber,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// List pages through registered patients ordered by name.
func (h *PatientHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.service.List(requestContext(c), limit, offset)
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

// Get returns a single patient with their person record.
func (h *PatientHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	patient, err := h.service.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, patient)
}

// SaveClinicalEvaluation creates or updates the patient's anamnesis.
func (h *PatientHandler) SaveClinicalEvaluation(c *gin.Context) {
	var payload models.ClinicalEvaluation
	if !bindAndValidate(c, &payload) {
		return
	}
	payload.PatientID = strings.TrimSpace(c.Param("id"))

	saved, err := h.service.SaveClinicalEvaluation(requestContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, saved)
}

// AddAnthropometricEvaluation appends a dated set of body measurements.
func (h *PatientHandler) AddAnthropometricEvaluation(c *gin.Context) {
	var payload models.AnthropometricEvaluation
	if !bindAndValidate(c, &payload) {
		return
	}
	payload.PatientID = strings.TrimSpace(c.Param("id"))

	saved, err := h.service.AddAnthropometricEvaluation(requestContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, saved)
}

// AddBiochemicalEvaluation appends a dated set of lab results.
func (h *PatientHandler) AddBiochemicalEvaluation(c *gin.Context) {
	var payload models.BiochemicalEvaluation
	if !bindAndValidate(c, &payload) {
		return
	}
	payload.PatientID = strings.TrimSpace(c.Param("id"))

	saved, err := h.service.AddBiochemicalEvaluation(requestContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, saved)
}

// AddFoodConsumption records one food-recall day for the patient.
func (h *PatientHandler) AddFoodConsumption(c *gin.Context) {
	var payload struct {
		NutritionistID string         `json:"nutritionist_id" validate:"required"`
		LinkedDay      string         `json:"linked_day" validate:"required"`
		FoodRecords    map[string]any `json:"food_records" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	saved, err := h.service.AddFoodConsumption(requestContext(c), services.FoodConsumptionInput{
		PatientID:      strings.TrimSpace(c.Param("id")),
		NutritionistID: payload.NutritionistID,
		LinkedDay:      payload.LinkedDay,
		FoodRecords:    payload.FoodRecords,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, saved)
}

// ListFoodConsumptions returns the patient's food-recall records.
func (h *PatientHandler) ListFoodConsumptions(c *gin.Context) {
	rows, err := h.service.ListFoodConsumptions(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rows)
}
