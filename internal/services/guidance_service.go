package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

const (
	guidanceNotificationTitle    = "Você tem uma nova orientação cadastrada"
	guidanceNotificationSubtitle = "Clica aqui pra ver"
)

// CreateGuidanceInput describes a new piece of nutritional guidance.
type CreateGuidanceInput struct {
	NutritionistID      string
	PatientID           string
	NutritionalGuidance string
}

// GuidanceService records nutritional guidance and tells the patient about it.
type GuidanceService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewGuidanceService constructs a GuidanceService.
func NewGuidanceService(db *gorm.DB, notificationService *NotificationService) (*GuidanceService, error) {
	if db == nil {
		return nil, errors.New("guidance service: db is required")
	}
	if notificationService == nil {
		return nil, errors.New("guidance service: notification service is required")
	}
	return &GuidanceService{db: db, notifications: notificationService}, nil
}

// Create stores the guidance and raises an immediate notification for the
// patient's linked user, when one exists.
func (s *GuidanceService) Create(ctx context.Context, input CreateGuidanceInput) (*models.Guidance, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(input.NutritionalGuidance) == "" {
		return nil, apperrors.NewBadRequest("Guidance text is required")
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", input.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("guidance service: load patient: %w", err)
	}

	guidance := models.Guidance{
		NutritionalGuidance: strings.TrimSpace(input.NutritionalGuidance),
		PatientID:           patient.ID,
		NutritionistID:      input.NutritionistID,
	}
	if err := s.db.WithContext(ctx).Create(&guidance).Error; err != nil {
		return nil, fmt.Errorf("guidance service: create guidance: %w", err)
	}

	if err := s.notifications.NotifyPersons(ctx, []string{patient.PersonID}, NotificationSpec{
		Title:    guidanceNotificationTitle,
		Subtitle: guidanceNotificationSubtitle,
		Body:     guidanceNotificationTitle,
		Data:     map[string]any{"guidance_id": guidance.ID},
	}); err != nil {
		// Guidance is saved either way; the reminder is best-effort.
		return &guidance, nil
	}

	return &guidance, nil
}

// ListByPatient pages through a patient's guidance history.
func (s *GuidanceService) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.Guidance, int64, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Guidance{}).Where("patient_id = ?", patientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("guidance service: count guidances: %w", err)
	}

	var rows []models.Guidance
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(maxInt(0, offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("guidance service: list guidances: %w", err)
	}
	return rows, total, nil
}
