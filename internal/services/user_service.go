package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/validator"
)

// UserDTO is the API-friendly user payload. The password hash never leaves
// the service layer.
type UserDTO struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	Email     string      `json:"email,omitempty"`
	IsCreator bool        `json:"is_creator"`
	PersonID  string      `json:"person_id"`
	Name      string      `json:"name,omitempty"`
	CPF       string      `json:"cpf,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateUserInput registers a person and their account shell. Email and
// password are set later, during first-access setup.
type CreateUserInput struct {
	Name         string
	CPF          string
	BirthdayDate time.Time
	Role         models.Role
	IsCreator    bool
}

// UserService manages accounts, credentials, and device push tokens.
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, now: time.Now}, nil
}

// Create registers a user, reusing the person when the CPF already exists.
// A CPF already bound to another account is rejected.
func (s *UserService) Create(ctx context.Context, input CreateUserInput, tx *gorm.DB) (*models.User, error) {
	ctx = ensureContext(ctx)
	cpf := strings.TrimSpace(input.CPF)
	if !validator.IsValidCPF(cpf) {
		return nil, apperrors.NewBadRequest("Invalid CPF")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewBadRequest("Name is required")
	}

	handle := tx
	if handle == nil {
		handle = s.db
	}

	var person models.Person
	err := handle.WithContext(ctx).First(&person, "cpf = ?", cpf).Error
	switch {
	case err == nil:
		var existing models.User
		userErr := handle.WithContext(ctx).First(&existing, "person_id = ?", person.ID).Error
		if userErr == nil {
			return nil, apperrors.NewBadRequest("CPF already in use")
		}
		if !errors.Is(userErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user service: check existing user: %w", userErr)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		person = models.Person{
			Name:         strings.TrimSpace(input.Name),
			CPF:          cpf,
			BirthdayDate: input.BirthdayDate,
		}
		if err := handle.WithContext(ctx).Create(&person).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewBadRequest("CPF already in use")
			}
			return nil, fmt.Errorf("user service: create person: %w", err)
		}
	default:
		return nil, fmt.Errorf("user service: load person: %w", err)
	}

	user := models.User{
		Role:      models.Role(defaultIfEmpty(string(input.Role), string(models.RoleNutritionist))),
		PersonID:  person.ID,
		IsCreator: input.IsCreator,
	}
	if err := handle.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	user.Person = &person

	return &user, nil
}

// FindByLogin authenticates an email/password pair.
func (s *UserService) FindByLogin(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Person").
		First(&user, "email = ?", strings.TrimSpace(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: find by login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// FindByID loads a user, optionally with the linked person.
func (s *UserService) FindByID(ctx context.Context, id string, includePerson bool) (*models.User, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx)
	if includePerson {
		query = query.Preload("Person")
	}

	var user models.User
	if err := query.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: find by id: %w", err)
	}
	return &user, nil
}

// FindByCPFAndEmail loads the user whose email matches and whose person
// carries the supplied CPF. Used by the forgot-password flow.
func (s *UserService) FindByCPFAndEmail(ctx context.Context, cpf, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Person").
		Joins("JOIN people ON people.id = users.person_id").
		Where("users.email = ? AND people.cpf = ?", strings.TrimSpace(email), strings.TrimSpace(cpf)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: find by cpf and email: %w", err)
	}
	return &user, nil
}

// SetupLoginData completes first access for a person's account: the email
// must be unused and both credentials are set together.
func (s *UserService) SetupLoginData(ctx context.Context, personID, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewBadRequest("Email and password are required")
	}

	var taken models.User
	err := s.db.WithContext(ctx).First(&taken, "email = ?", email).Error
	if err == nil {
		return nil, apperrors.NewBadRequest("Email already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "person_id = ?", personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user by person: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).
		Updates(map[string]any{"email": email, "password": string(hash)}).Error; err != nil {
		return nil, fmt.Errorf("user service: setup login data: %w", err)
	}

	user.Email = &email
	user.Password = string(hash)
	return &user, nil
}

// SetPassword replaces the password of the account behind the email.
func (s *UserService) SetPassword(ctx context.Context, email, newPassword string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", strings.TrimSpace(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password", string(hash)).Error; err != nil {
		return nil, fmt.Errorf("user service: set password: %w", err)
	}
	user.Password = string(hash)
	return &user, nil
}

// CheckIn upserts the device push token for the acting user. Repeated
// check-ins with a known token only refresh its timestamp.
func (s *UserService) CheckIn(ctx context.Context, userID, pushToken string) error {
	ctx = ensureContext(ctx)
	pushToken = strings.TrimSpace(pushToken)
	if pushToken == "" {
		return apperrors.NewBadRequest("Push token is required")
	}

	now := s.now().UTC()

	var existing models.PushToken
	err := s.db.WithContext(ctx).
		First(&existing, "user_id = ? AND token = ?", userID, pushToken).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Model(&existing).
			Update("last_check_in_at", now).Error; err != nil {
			return fmt.Errorf("user service: refresh push token: %w", err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.PushToken{Token: pushToken, UserID: userID, LastCheckInAt: now}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("user service: register push token: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("user service: check in: %w", err)
	}
}

// MapUser flattens a user row into its DTO form.
func MapUser(user *models.User) UserDTO {
	dto := UserDTO{
		ID:        user.ID,
		Role:      user.Role,
		IsCreator: user.IsCreator,
		PersonID:  user.PersonID,
		CreatedAt: user.CreatedAt,
	}
	if user.Email != nil {
		dto.Email = *user.Email
	}
	if user.Person != nil {
		dto.Name = user.Person.Name
		dto.CPF = user.Person.CPF
	}
	return dto
}
