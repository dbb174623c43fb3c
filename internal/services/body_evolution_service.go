package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	"github.com/nutriconsultas/backend/internal/storage"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

const (
	// dailyUploadLimit caps how many progress photos a patient may upload
	// per calendar day.
	dailyUploadLimit = 3
	// deleteWindow is how long after upload a photo may still be removed.
	deleteWindow = time.Hour
)

// BodyEvolutionService stores patient progress photos.
type BodyEvolutionService struct {
	db      *gorm.DB
	store   storage.Store
	baseURL string
	now     func() time.Time
}

// NewBodyEvolutionService constructs a BodyEvolutionService. baseURL prefixes
// the public image URLs.
func NewBodyEvolutionService(db *gorm.DB, store storage.Store, baseURL string) (*BodyEvolutionService, error) {
	if db == nil {
		return nil, errors.New("body evolution service: db is required")
	}
	if store == nil {
		return nil, errors.New("body evolution service: store is required")
	}
	return &BodyEvolutionService{
		db:      db,
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Upload stores the photo and records the upload. A patient past the daily
// limit is rejected before anything is written.
func (s *BodyEvolutionService) Upload(ctx context.Context, patientID, filename string, content io.Reader) (*models.BodyEvolution, error) {
	ctx = ensureContext(ctx)

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var todayCount int64
	if err := s.db.WithContext(ctx).
		Model(&models.BodyEvolution{}).
		Where("patient_id = ? AND upload_date >= ?", patientID, dayStart).
		Count(&todayCount).Error; err != nil {
		return nil, fmt.Errorf("body evolution service: count today's uploads: %w", err)
	}
	if todayCount >= dailyUploadLimit {
		return nil, apperrors.ErrUploadLimitReached
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("body-evolution/%s/%s%s", patientID, uuid.NewString(), ext)
	if err := s.store.Save(key, content); err != nil {
		return nil, fmt.Errorf("body evolution service: store image: %w", err)
	}

	row := models.BodyEvolution{
		UploadDate: now,
		StorageKey: key,
		ImageURL:   s.baseURL + "/" + key,
		PatientID:  patientID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		_ = s.store.Delete(key)
		return nil, fmt.Errorf("body evolution service: create record: %w", err)
	}

	return &row, nil
}

// ListByPatient pages through a patient's uploads, newest first.
func (s *BodyEvolutionService) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]models.BodyEvolution, int64, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.BodyEvolution{}).Where("patient_id = ?", patientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("body evolution service: count uploads: %w", err)
	}

	var rows []models.BodyEvolution
	if err := query.
		Order("upload_date DESC").
		Limit(limit).
		Offset(maxInt(0, offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("body evolution service: list uploads: %w", err)
	}
	return rows, total, nil
}

// Delete removes an upload while it is still inside the deletion window. The
// stored image goes with it.
func (s *BodyEvolutionService) Delete(ctx context.Context, patientID, bodyEvolutionID string) error {
	ctx = ensureContext(ctx)

	cutoff := s.now().UTC().Add(-deleteWindow)

	var row models.BodyEvolution
	err := s.db.WithContext(ctx).
		Where("id = ? AND patient_id = ? AND upload_date >= ?", bodyEvolutionID, patientID, cutoff).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewBadRequest("Upload not found")
	}
	if err != nil {
		return fmt.Errorf("body evolution service: load upload: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return fmt.Errorf("body evolution service: delete record: %w", err)
	}
	_ = s.store.Delete(row.StorageKey)

	return nil
}
