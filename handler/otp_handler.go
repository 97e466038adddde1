package handler

import (
	"net/http"

	"repairdesk/models"
	"repairdesk/service"
)

// OTPHandler issues recovery codes
type OTPHandler struct {
	otpService *service.OTPService
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// SendOTP handles POST /otp/send
// A request inside the cooldown window gets 429 with retry_after.
func (h *OTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.otpService.Send(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}
