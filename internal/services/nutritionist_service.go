package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

// RegisterNutritionistInput registers a nutritionist and their account shell.
type RegisterNutritionistInput struct {
	Name         string
	CPF          string
	BirthdayDate time.Time
	CRN          string
}

// NutritionistDTO is the API-friendly nutritionist payload.
type NutritionistDTO struct {
	ID        string    `json:"id"`
	CRN       string    `json:"crn"`
	PersonID  string    `json:"person_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NutritionistService manages professional profiles.
type NutritionistService struct {
	db    *gorm.DB
	users *UserService
}

// NewNutritionistService constructs a NutritionistService.
func NewNutritionistService(db *gorm.DB, users *UserService) (*NutritionistService, error) {
	if db == nil {
		return nil, errors.New("nutritionist service: db is required")
	}
	if users == nil {
		return nil, errors.New("nutritionist service: user service is required")
	}
	return &NutritionistService{db: db, users: users}, nil
}

// Register creates the person, account shell, and professional profile in one
// transaction. The CRN must be unused.
func (s *NutritionistService) Register(ctx context.Context, input RegisterNutritionistInput) (*NutritionistDTO, error) {
	ctx = ensureContext(ctx)
	crn := strings.TrimSpace(input.CRN)
	if crn == "" {
		return nil, apperrors.NewBadRequest("CRN is required")
	}

	var existing models.Nutritionist
	err := s.db.WithContext(ctx).First(&existing, "crn = ?", crn).Error
	if err == nil {
		return nil, apperrors.NewBadRequest("CRN already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("nutritionist service: check crn: %w", err)
	}

	var nutritionist models.Nutritionist
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.Create(ctx, CreateUserInput{
			Name:         input.Name,
			CPF:          input.CPF,
			BirthdayDate: input.BirthdayDate,
			Role:         models.RoleNutritionist,
			IsCreator:    true,
		}, tx)
		if err != nil {
			return err
		}

		nutritionist = models.Nutritionist{CRN: crn, PersonID: user.PersonID}
		if err := tx.Create(&nutritionist).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewBadRequest("CRN already registered")
			}
			return fmt.Errorf("nutritionist service: create nutritionist: %w", err)
		}
		nutritionist.Person = user.Person
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapNutritionist(nutritionist)
	return &dto, nil
}

// GetByID loads one nutritionist with their person record.
func (s *NutritionistService) GetByID(ctx context.Context, id string) (*models.Nutritionist, error) {
	ctx = ensureContext(ctx)

	var nutritionist models.Nutritionist
	if err := s.db.WithContext(ctx).
		Preload("Person").
		First(&nutritionist, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("nutritionist service: load nutritionist: %w", err)
	}
	return &nutritionist, nil
}

// GetByPersonID loads the professional profile bound to a person.
func (s *NutritionistService) GetByPersonID(ctx context.Context, personID string) (*models.Nutritionist, error) {
	ctx = ensureContext(ctx)

	var nutritionist models.Nutritionist
	if err := s.db.WithContext(ctx).
		Preload("Person").
		First(&nutritionist, "person_id = ?", personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("nutritionist service: load by person: %w", err)
	}
	return &nutritionist, nil
}

func mapNutritionist(row models.Nutritionist) NutritionistDTO {
	dto := NutritionistDTO{
		ID:        row.ID,
		CRN:       row.CRN,
		PersonID:  row.PersonID,
		CreatedAt: row.CreatedAt,
	}
	if row.Person != nil {
		dto.Name = row.Person.Name
	}
	return dto
}
