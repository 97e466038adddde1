package handler

import (
	"net/http"

	"repairdesk/models"
	"repairdesk/service"
)

// UserHandler serves the caller's profile and employee management
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	user, err := h.authService.GetUser(r.Context(), v.UserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// CreateEmployee handles POST /users/employee (OWNER)
func (h *UserHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	var req models.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.authService.CreateEmployee(r.Context(), v.Role, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// ListEmployees handles GET /users/employees (OWNER), the assignment dropdown source
func (h *UserHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(w, r)
	if !ok {
		return
	}
	users, err := h.authService.ListEmployees(r.Context(), v.Role)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"employees": users,
		"count":     len(users),
	})
}
