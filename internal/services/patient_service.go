package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
)

// RegisterPatientInput holds the civil and clinical profile captured when a
// nutritionist registers a new patient.
type RegisterPatientInput struct {
	Name         string
	CPF          string
	BirthdayDate time.Time

	Sex               string
	Gender            string
	CivilStatus       string
	Nationality       string
	Naturality        string
	Ethnicity         string
	Schooling         string
	Profession        string
	CompleteAddress   string
	HistoryWeightGain string
	PhoneNumber       string
}

// PatientDTO is the API-friendly patient payload.
type PatientDTO struct {
	ID           string    `json:"id"`
	PersonID     string    `json:"person_id"`
	Name         string    `json:"name"`
	CPF          string    `json:"cpf"`
	BirthdayDate time.Time `json:"birthday_date"`
	Sex          string    `json:"sex"`
	Gender       string    `json:"gender"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FoodConsumptionInput is one food-recall record for a patient day.
type FoodConsumptionInput struct {
	PatientID      string
	NutritionistID string
	LinkedDay      string
	FoodRecords    map[string]any
}

// PatientService manages patient profiles and their clinical records.
type PatientService struct {
	db    *gorm.DB
	users *UserService
	now   func() time.Time
}

// NewPatientService constructs a PatientService.
func NewPatientService(db *gorm.DB, users *UserService) (*PatientService, error) {
	if db == nil {
		return nil, errors.New("patient service: db is required")
	}
	if users == nil {
		return nil, errors.New("patient service: user service is required")
	}
	return &PatientService{db: db, users: users, now: time.Now}, nil
}

// Register creates the person, account shell, and patient profile in one
// transaction. The patient signs in later through first-access setup.
func (s *PatientService) Register(ctx context.Context, input RegisterPatientInput) (*PatientDTO, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(input.Sex) == "" {
		return nil, apperrors.NewBadRequest("Sex is required")
	}

	var patient models.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.Create(ctx, CreateUserInput{
			Name:         input.Name,
			CPF:          input.CPF,
			BirthdayDate: input.BirthdayDate,
			Role:         models.RolePatient,
		}, tx)
		if err != nil {
			return err
		}

		patient = models.Patient{
			Sex:               input.Sex,
			Gender:            defaultIfEmpty(input.Gender, input.Sex),
			CivilStatus:       input.CivilStatus,
			Nationality:       input.Nationality,
			Naturality:        input.Naturality,
			Ethnicity:         input.Ethnicity,
			Schooling:         input.Schooling,
			Profession:        input.Profession,
			CompleteAddress:   input.CompleteAddress,
			HistoryWeightGain: input.HistoryWeightGain,
			PhoneNumber:       input.PhoneNumber,
			PersonID:          user.PersonID,
		}
		if err := tx.Create(&patient).Error; err != nil {
			return fmt.Errorf("patient service: create patient: %w", err)
		}
		patient.Person = user.Person
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapPatient(patient)
	return &dto, nil
}

// List pages through registered patients ordered by name.
func (s *PatientService) List(ctx context.Context, limit, offset int) ([]PatientDTO, int64, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("patient service: count patients: %w", err)
	}

	var rows []models.Patient
	if err := s.db.WithContext(ctx).
		Preload("Person").
		Joins("JOIN people ON people.id = patients.person_id").
		Order("people.name ASC").
		Limit(limit).
		Offset(maxInt(0, offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("patient service: list patients: %w", err)
	}

	items := make([]PatientDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPatient(row))
	}
	return items, total, nil
}

// Get loads one patient with their person record.
func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	ctx = ensureContext(ctx)

	var patient models.Patient
	if err := s.db.WithContext(ctx).
		Preload("Person").
		First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("patient service: load patient: %w", err)
	}
	return &patient, nil
}

// GetByPersonID resolves the patient profile linked to a person.
func (s *PatientService) GetByPersonID(ctx context.Context, personID string) (*models.Patient, error) {
	ctx = ensureContext(ctx)

	var patient models.Patient
	if err := s.db.WithContext(ctx).
		Preload("Person").
		First(&patient, "person_id = ?", personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("patient service: load patient by person: %w", err)
	}
	return &patient, nil
}

// HasCredentials reports whether the patient behind the CPF already finished
// first-access setup.
func (s *PatientService) HasCredentials(ctx context.Context, cpf string) (bool, string, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN people ON people.id = users.person_id").
		Where("people.cpf = ?", strings.TrimSpace(cpf)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", apperrors.ErrNotFound
	}
	if err != nil {
		return false, "", fmt.Errorf("patient service: check credentials: %w", err)
	}

	return user.Email != nil && user.Password != "", user.PersonID, nil
}

// SaveClinicalEvaluation creates or updates the patient's single anamnesis.
func (s *PatientService) SaveClinicalEvaluation(ctx context.Context, evaluation models.ClinicalEvaluation) (*models.ClinicalEvaluation, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(evaluation.PatientID) == "" {
		return nil, apperrors.NewBadRequest("Patient id is required")
	}

	var existing models.ClinicalEvaluation
	err := s.db.WithContext(ctx).First(&existing, "patient_id = ?", evaluation.PatientID).Error
	switch {
	case err == nil:
		evaluation.ID = existing.ID
		evaluation.CreatedAt = existing.CreatedAt
		if err := s.db.WithContext(ctx).Save(&evaluation).Error; err != nil {
			return nil, fmt.Errorf("patient service: update clinical evaluation: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(&evaluation).Error; err != nil {
			return nil, fmt.Errorf("patient service: create clinical evaluation: %w", err)
		}
	default:
		return nil, fmt.Errorf("patient service: load clinical evaluation: %w", err)
	}

	return &evaluation, nil
}

// AddAnthropometricEvaluation appends one dated measurement set.
func (s *PatientService) AddAnthropometricEvaluation(ctx context.Context, evaluation models.AnthropometricEvaluation) (*models.AnthropometricEvaluation, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(evaluation.PatientID) == "" {
		return nil, apperrors.NewBadRequest("Patient id is required")
	}
	if evaluation.ExamDate.IsZero() {
		evaluation.ExamDate = s.now().UTC()
	}

	if err := s.db.WithContext(ctx).Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("patient service: create anthropometric evaluation: %w", err)
	}
	return &evaluation, nil
}

// AddBiochemicalEvaluation appends one dated lab panel.
func (s *PatientService) AddBiochemicalEvaluation(ctx context.Context, evaluation models.BiochemicalEvaluation) (*models.BiochemicalEvaluation, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(evaluation.PatientID) == "" {
		return nil, apperrors.NewBadRequest("Patient id is required")
	}
	if evaluation.ExamDate.IsZero() {
		evaluation.ExamDate = s.now().UTC()
	}

	if err := s.db.WithContext(ctx).Create(&evaluation).Error; err != nil {
		return nil, fmt.Errorf("patient service: create biochemical evaluation: %w", err)
	}
	return &evaluation, nil
}

// AddFoodConsumption records one food-recall entry.
func (s *PatientService) AddFoodConsumption(ctx context.Context, input FoodConsumptionInput) (*models.FoodConsumption, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(input.LinkedDay) == "" {
		return nil, apperrors.NewBadRequest("Linked day is required")
	}

	records, err := json.Marshal(input.FoodRecords)
	if err != nil {
		return nil, fmt.Errorf("patient service: marshal food records: %w", err)
	}

	row := models.FoodConsumption{
		LinkedDay:      strings.ToUpper(strings.TrimSpace(input.LinkedDay)),
		FoodRecords:    datatypes.JSON(records),
		PatientID:      input.PatientID,
		NutritionistID: input.NutritionistID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("patient service: create food consumption: %w", err)
	}
	return &row, nil
}

// ListFoodConsumptions returns every recall record for a patient.
func (s *PatientService) ListFoodConsumptions(ctx context.Context, patientID string) ([]models.FoodConsumption, error) {
	ctx = ensureContext(ctx)

	var rows []models.FoodConsumption
	if err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("patient service: list food consumptions: %w", err)
	}
	return rows, nil
}

// PersonsWithoutRecentBodyEvolution returns the person ids of patients who
// have not uploaded a body-evolution photo since the cutoff.
func (s *PatientService) PersonsWithoutRecentBodyEvolution(ctx context.Context, cutoff time.Time) ([]string, error) {
	ctx = ensureContext(ctx)

	var personIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id NOT IN (?)", s.db.
			Model(&models.BodyEvolution{}).
			Select("patient_id").
			Where("upload_date >= ?", cutoff)).
		Pluck("person_id", &personIDs).Error; err != nil {
		return nil, fmt.Errorf("patient service: patients without recent uploads: %w", err)
	}
	return personIDs, nil
}

func mapPatient(row models.Patient) PatientDTO {
	dto := PatientDTO{
		ID:          row.ID,
		PersonID:    row.PersonID,
		Sex:         row.Sex,
		Gender:      row.Gender,
		PhoneNumber: row.PhoneNumber,
		CreatedAt:   row.CreatedAt,
	}
	if row.Person != nil {
		dto.Name = row.Person.Name
		dto.CPF = row.Person.CPF
		dto.BirthdayDate = row.Person.BirthdayDate
	}
	return dto
}
