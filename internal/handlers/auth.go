package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/nutriconsultas/backend/internal/auth"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/mail"
	"github.com/nutriconsultas/backend/pkg/response"
)

// AuthHandler exposes login, password recovery, first-access setup, and
// device check-in endpoints.
type AuthHandler struct {
	auth     *services.AuthService
	users    *services.UserService
	patients *services.PatientService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, mailer mail.Mailer) (*AuthHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	authSvc, err := services.NewAuthService(db, users, jwt, mailer)
	if err != nil {
		return nil, err
	}
	patients, err := services.NewPatientService(db, users)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{auth: authSvc, users: users, patients: patients}, nil
}

// Login authenticates with email and password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	result, err := h.auth.Login(requestContext(c), payload.Email, payload.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.FindByID(requestContext(c), userID, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	dto := services.MapUser(user)
	response.Success(c, http.StatusOK, dto)
}

// ForgotPassword mails a reset code to the account matching cpf and email.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var payload struct {
		CPF   string `json:"cpf" validate:"required,cpf"`
		Email string `json:"email" validate:"required,email"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.auth.ForgotPassword(requestContext(c), payload.CPF, payload.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// CheckResetCode verifies a reset code without consuming it.
func (h *AuthHandler) CheckResetCode(c *gin.Context) {
	var payload struct {
		Code string `json:"code" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.auth.CheckResetCode(requestContext(c), payload.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"valid": true})
}

// ResetPassword consumes a reset code and stores the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var payload struct {
		Code     string `json:"code" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	if _, err := h.auth.ResetPassword(requestContext(c), payload.Code, payload.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}

// FirstAccessCheck reports whether the account behind a CPF already finished
// first-access setup.
func (h *AuthHandler) FirstAccessCheck(c *gin.Context) {
	cpf := c.Param("cpf")

	hasCredentials, _, err := h.patients.HasCredentials(requestContext(c), cpf)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"has_credentials": hasCredentials})
}

// FirstAccessSetup stores the email and password for an account shell created
// at registration time.
func (h *AuthHandler) FirstAccessSetup(c *gin.Context) {
	var payload struct {
		CPF      string `json:"cpf" validate:"required,cpf"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	ctx := requestContext(c)

	hasCredentials, personID, err := h.patients.HasCredentials(ctx, payload.CPF)
	if err != nil {
		response.Error(c, err)
		return
	}
	if hasCredentials {
		response.Error(c, errors.NewBadRequest("Account already has credentials"))
		return
	}

	user, err := h.users.SetupLoginData(ctx, personID, payload.Email, payload.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	dto := services.MapUser(user)
	response.Success(c, http.StatusCreated, dto)
}

// CheckIn registers or refreshes the calling device's Expo push token.
func (h *AuthHandler) CheckIn(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		PushToken string `json:"push_token" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.users.CheckIn(requestContext(c), userID, payload.PushToken); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"checked_in": true})
}
