package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"repairdesk/middleware"
	"repairdesk/models"
	"repairdesk/permission"
	"repairdesk/service"
)

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	}
	respondWithJSON(w, statusCode, response)
}

// respondWithServiceError maps a service error onto the HTTP taxonomy the front end branches on:
// 400 field errors, 401 credentials, 403 permission, 404 unknown identifiers, 409 stale writes
// and 429 OTP cooldown.
func respondWithServiceError(w http.ResponseWriter, err error) {
	resp := models.ErrorResponse{Message: err.Error()}

	var invalid *service.InvalidInputError
	var forbidden *service.FieldForbiddenError
	var cooldown *service.CooldownError

	switch {
	case errors.As(err, &invalid):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusBadRequest, "Validation error", models.ErrCodeValidation
		resp.Fields = invalid.Fields
		if len(invalid.Fields) > 0 {
			resp.Message = invalid.Fields[0].Message
		}
	case errors.As(err, &cooldown):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusTooManyRequests, "Too many requests", models.ErrCodeOTPCooldown
		resp.RetryAfter = cooldown.RetryAfterSeconds()
		resp.Message = "Please wait before requesting another OTP"
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	case errors.As(err, &forbidden):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusForbidden, "Forbidden", models.ErrCodeFieldForbidden
		for _, f := range forbidden.Fields {
			resp.Fields = append(resp.Fields, models.FieldError{Field: f, Message: "You cannot change this field"})
		}
	case errors.Is(err, service.ErrForbidden):
		resp.Code, resp.Error = http.StatusForbidden, "Forbidden"
		resp.Message = "You do not have access to this resource"
	case errors.Is(err, service.ErrInvalidPassword):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusUnauthorized, "Unauthorized", models.ErrCodeInvalidPassword
		resp.Message = "Incorrect password"
	case errors.Is(err, service.ErrUserNotFound):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusNotFound, "Not Found", models.ErrCodeUserNotFound
		resp.Message = "User not found"
	case errors.Is(err, service.ErrNotFound):
		resp.Code, resp.Error = http.StatusNotFound, "Not Found"
	case errors.Is(err, service.ErrInvalidOTP):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusBadRequest, "Invalid OTP", models.ErrCodeInvalidOTP
		resp.Message = "Invalid OTP. Please try again."
		resp.Fields = []models.FieldError{{Field: "otp", Message: resp.Message}}
	case errors.Is(err, service.ErrOTPExpired):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusBadRequest, "OTP expired", models.ErrCodeOTPExpired
		resp.Message = "OTP has expired. Please request a new OTP."
		resp.Fields = []models.FieldError{{Field: "otp", Message: resp.Message}}
	case errors.Is(err, service.ErrIdentityMismatch):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusBadRequest, "Identity mismatch", models.ErrCodeIdentityMismatch
		resp.Message = "Username and phone number do not match"
	case errors.Is(err, service.ErrInvalidTransition):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusBadRequest, "Invalid status", models.ErrCodeInvalidStatus
		resp.Fields = []models.FieldError{{Field: "status", Message: err.Error()}}
	case errors.Is(err, service.ErrConflict):
		resp.Code, resp.Error, resp.ErrorCode = http.StatusConflict, "Conflict", models.ErrCodeConflict
	case errors.Is(err, service.ErrDeliveryFailed):
		resp.Code, resp.Error = http.StatusServiceUnavailable, "Service unavailable"
		resp.Message = "Could not deliver the OTP right now. Please try again later."
	default:
		log.Printf("[http] internal error: %v", err)
		resp.Code, resp.Error = http.StatusInternalServerError, "Internal error"
		resp.Message = "Something went wrong. Please try again."
	}
	respondWithJSON(w, resp.Code, resp)
}

// viewer returns the authenticated caller or writes 401
func viewer(w http.ResponseWriter, r *http.Request) (permission.Viewer, bool) {
	v, ok := middleware.ViewerFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
	}
	return v, ok
}
