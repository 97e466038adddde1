package handler

import (
	"errors"
	"net/http"

	"repairdesk/models"
	"repairdesk/service"
)

// AuthHandler handles login, registration and account recovery
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /login
// 401 carries USER_NOT_FOUND or INVALID_PASSWORD so the form can flag the right field.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if errors.Is(err, service.ErrUserNotFound) {
		respondWithJSON(w, http.StatusUnauthorized, models.ErrorResponse{
			Error:     "Unauthorized",
			Message:   "No account with this username",
			Code:      http.StatusUnauthorized,
			ErrorCode: models.ErrCodeUserNotFound,
		})
		return
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Register handles POST /register and creates a CUSTOMER account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.RegisterCustomer(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// ForgotUsername handles POST /forgot-username
func (h *AuthHandler) ForgotUsername(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotUsernameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	username, err := h.authService.ForgotUsername(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.ForgotUsernameResponse{Username: username})
}

// ValidateUser handles POST /validate-user
func (h *AuthHandler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ValidateUser(r.Context(), req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User validated",
	})
}

// ForgotPassword handles POST /forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated. Please log in with your new password.",
	})
}
