package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/service"
	"github.com/utafrali/MicroblogGo/pkg/httputil"
	"github.com/utafrali/MicroblogGo/pkg/validator"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accounts     *service.AccountService
	verification *service.VerificationService
	logger       *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(accounts *service.AccountService, verification *service.VerificationService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, verification: verification, logger: logger}
}

// --- Request DTOs ---

// SignUpRequest is the JSON request body for creating an account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
}

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest is the JSON request body for confirming an email.
// The code is compared as sent; its length is not validated.
type VerifyEmailRequest struct {
	VerificationCode string `json:"verificationCode" validate:"required"`
}

// ChangePasswordRequest is the JSON request body for changing a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// UpdateAccountRequest is the JSON request body for PATCH /accounts/{id}.
// A role change cannot be combined with personal fields.
type UpdateAccountRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	PublicEmail *bool   `json:"publicEmail"`
	PublicName  *bool   `json:"publicName"`
	Role        *string `json:"role" validate:"omitempty,oneof=user moderator admin,excluded_with=Name PublicEmail PublicName"`
}

// --- Handlers ---

// SignUp handles POST /api/v1/accounts/sign-up
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.accounts.SignUp(r.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, res)
}

// SignIn handles POST /api/v1/accounts/sign-in
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	res, err := h.accounts.SignIn(r.Context(), service.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// ResendEmail handles POST /api/v1/accounts/resend-email
func (h *AccountHandler) ResendEmail(w http.ResponseWriter, r *http.Request) {
	err := h.verification.SendVerificationEmail(r.Context(), service.VerificationRequest{ID: callerID(r)})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail handles POST /api/v1/accounts/verify-email
func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.verification.VerifyEmail(r.Context(), callerID(r), req.VerificationCode); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /api/v1/accounts/change-password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), callerID(r), req.CurrentPassword, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	view, err := h.accounts.GetAccount(r.Context(), id.String(), callerID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}

// Update handles PATCH /api/v1/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	view, err := h.accounts.UpdateAccount(r.Context(), id.String(), callerID(r), domain.AccountPatch{
		Name:        req.Name,
		PublicEmail: req.PublicEmail,
		PublicName:  req.PublicName,
		Role:        req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, view)
}
