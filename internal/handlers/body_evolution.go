package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/internal/storage"
	"github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/response"
)

// BodyEvolutionHandler exposes the patient's photo diary endpoints. Patients
// act on their own records; the patient id always comes from the token.
type BodyEvolutionHandler struct {
	service  *services.BodyEvolutionService
	patients *services.PatientService
}

// NewBodyEvolutionHandler constructs a body evolution handler.
func NewBodyEvolutionHandler(db *gorm.DB, store storage.Store, publicBaseURL string) (*BodyEvolutionHandler, error) {
	service, err := services.NewBodyEvolutionService(db, store, publicBaseURL)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	patients, err := services.NewPatientService(db, users)
	if err != nil {
		return nil, err
	}
	return &BodyEvolutionHandler{service: service, patients: patients}, nil
}

func (h *BodyEvolutionHandler) actingPatientID(c *gin.Context) (string, bool) {
	personID := c.GetString(middleware.CtxPersonIDKey)
	if personID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}

	patient, err := h.patients.GetByPersonID(requestContext(c), personID)
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return patient.ID, true
}

// Upload stores one photo for the acting patient.
func (h *BodyEvolutionHandler) Upload(c *gin.Context) {
	patientID, ok := h.actingPatientID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, errors.NewBadRequest("image file is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, errors.NewBadRequest("image file could not be read"))
		return
	}
	defer src.Close()

	row, err := h.service.Upload(requestContext(c), patientID, file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, row)
}

// List pages through the acting patient's uploads, newest first.
func (h *BodyEvolutionHandler) List(c *gin.Context) {
	patientID, ok := h.actingPatientID(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	rows, total, err := h.service.ListByPatient(requestContext(c), patientID, limit, offset)
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

// Delete removes an upload, allowed only within the regret window.
func (h *BodyEvolutionHandler) Delete(c *gin.Context) {
	patientID, ok := h.actingPatientID(c)
	if !ok {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := h.service.Delete(requestContext(c), patientID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
