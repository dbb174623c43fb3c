package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutriconsultas/backend/internal/auth"
	"github.com/nutriconsultas/backend/internal/models"
	apperrors "github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/logger"
	"github.com/nutriconsultas/backend/pkg/mail"
	"github.com/nutriconsultas/backend/pkg/metrics"
)

const (
	// resetCodeValidity is how long a password-reset code stays usable.
	resetCodeValidity = 30 * time.Minute
	// resetCodeRetention is how long consumed or expired codes are kept
	// before the weekly cleanup removes them.
	resetCodeRetention = 24 * time.Hour

	resetEmailSubject = "Recupere sua senha - NutriConsultas+"
)

// LoginResult bundles the issued token with the authenticated user.
type LoginResult struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// AuthService handles login, token issuance, and password recovery.
type AuthService struct {
	db     *gorm.DB
	users  *UserService
	jwt    *auth.JWTService
	mailer mail.Mailer
	log    *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, users *UserService, jwtService *auth.JWTService, mailer mail.Mailer) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if users == nil {
		return nil, errors.New("auth service: user service is required")
	}
	if jwtService == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{
		db:     db,
		users:  users,
		jwt:    jwtService,
		mailer: mailer,
		log:    logger.WithModule("auth"),
		now:    time.Now,
	}, nil
}

// Login authenticates the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByLogin(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:   user.ID,
		PersonID: user.PersonID,
		Role:     user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, User: MapUser(user)}, nil
}

// ForgotPassword mails a 7-digit recovery code to the account matching the
// CPF/email pair. A pending code younger than the validity window throttles
// resends.
func (s *AuthService) ForgotPassword(ctx context.Context, cpf, email string) error {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByCPFAndEmail(ctx, cpf, email)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	var pending models.PasswordResetCode
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", user.ID, now.Add(-resetCodeValidity)).
		First(&pending).Error
	if err == nil {
		return apperrors.ErrResetEmailThrottled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("auth service: check pending reset code: %w", err)
	}

	code := models.PasswordResetCode{
		Code:   fmt.Sprintf("%07d", rand.IntN(9000000)+1000000),
		UserID: user.ID,
	}
	if err := s.db.WithContext(ctx).Create(&code).Error; err != nil {
		return fmt.Errorf("auth service: create reset code: %w", err)
	}

	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	if err := s.mailer.Send(ctx, mail.Message{
		To:      []string{strings.TrimSpace(email)},
		Subject: resetEmailSubject,
		Body:    resetEmailBody(name, code.Code),
	}); err != nil {
		return fmt.Errorf("auth service: send reset email: %w", err)
	}

	return nil
}

// CheckResetCode reports whether the code exists and is still valid.
func (s *AuthService) CheckResetCode(ctx context.Context, code string) error {
	ctx = ensureContext(ctx)

	now := s.now().UTC()
	var row models.PasswordResetCode
	err := s.db.WithContext(ctx).
		Where("code = ? AND created_at > ?", strings.TrimSpace(code), now.Add(-resetCodeValidity)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrResetCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("auth service: check reset code: %w", err)
	}
	return nil
}

// ResetPassword exchanges a valid code for a new password and consumes it.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) (*models.User, error) {
	ctx = ensureContext(ctx)
	if err := s.CheckResetCode(ctx, code); err != nil {
		return nil, err
	}

	var row models.PasswordResetCode
	if err := s.db.WithContext(ctx).
		Preload("User").
		First(&row, "code = ?", strings.TrimSpace(code)).Error; err != nil {
		return nil, fmt.Errorf("auth service: load reset code: %w", err)
	}
	if row.User == nil || row.User.Email == nil {
		return nil, apperrors.ErrResetCodeInvalid
	}

	user, err := s.users.SetPassword(ctx, *row.User.Email, newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return nil, fmt.Errorf("auth service: consume reset code: %w", err)
	}
	return user, nil
}

// CleanupExpiredResetCodes deletes reset codes past the retention window and
// returns how many rows were removed.
func (s *AuthService) CleanupExpiredResetCodes(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.now().UTC().Add(-resetCodeRetention)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PasswordResetCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("auth service: cleanup reset codes: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.log.Info("removed expired password reset codes", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func resetEmailBody(name, code string) string {
	greeting := "Olá"
	if name != "" {
		greeting = "Olá, " + name
	}
	return fmt.Sprintf("%s!\n\nUse o código abaixo para redefinir sua senha no NutriConsultas+:\n\n%s\n\nO código expira em 30 minutos. Se você não pediu a redefinição, ignore este email.\n", greeting, code)
}
