package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairdesk/config"
	"repairdesk/handler"
	"repairdesk/models"
	"repairdesk/routes"
	"repairdesk/service"
)

type testAPI struct {
	router *mux.Router
	auth   *service.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	users := newMemUsers()
	complaints := newMemComplaints()
	otp := service.NewOTPService(newMemOTP(), offlineNotifier{}, config.OTPConfig{
		Length: 6, TTL: 10 * time.Minute, Cooldown: 60 * time.Second, MaxAttempts: 3, DevMode: true,
	})
	authCfg := config.AuthConfig{JWTSecret: "api-test-secret", TokenTTLHours: 1}
	auth := service.NewAuthService(users, otp, authCfg)
	router := routes.SetupRoutes(
		auth,
		otp,
		service.NewComplaintService(complaints, users),
		handler.NewHealthHandler(nil, nil),
		authCfg,
		config.ServerConfig{},
	)
	return &testAPI{router: router, auth: auth}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func (a *testAPI) login(t *testing.T, username, password string) models.LoginResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/login", "", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[models.LoginResponse](t, rec)
}

// seed creates an owner, an employee and a customer and returns their sessions
func (a *testAPI) seed(t *testing.T) (owner, employee, customer models.LoginResponse) {
	t.Helper()
	ctx := context.Background()
	_, err := a.auth.CreateOwner(ctx, models.RegisterUserRequest{
		Username: "owner", Password: "owner-pass-1", FullName: "Meera Shah", PhoneNumber: "9000000001",
	})
	require.NoError(t, err)
	_, err = a.auth.CreateEmployee(ctx, models.RoleOwner, models.RegisterUserRequest{
		Username: "ravi", Password: "ravi-pass-1", FullName: "Ravi Kumar", PhoneNumber: "9000000002", Designation: "Technician",
	})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/register", "", models.RegisterUserRequest{
		Username: "asha", Password: "asha-pass-1", FullName: "Asha Rao", PhoneNumber: "9876543210", Email: "asha@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return a.login(t, "owner", "owner-pass-1"), a.login(t, "ravi", "ravi-pass-1"), a.login(t, "asha", "asha-pass-1")
}

func complaintBody() models.RegisterComplaintRequest {
	return models.RegisterComplaintRequest{
		CustomerName:  "Asha Rao",
		ContactNumber: "9876543210",
		Address: models.Address{
			DoorNumber: "12", Street: "MG Road", City: "Pune", District: "Pune",
			State: "Maharashtra", Pincode: "411001", Country: "India",
		},
		ProductType:  "Refrigerator",
		Brand:        "Acme",
		ProductModel: "RF-200",
		Description:  "Not cooling",
	}
}

func updateFrom(c models.Complaint) models.UpdateComplaintRequest {
	return models.UpdateComplaintRequest{
		ComplaintID:        c.ComplaintID,
		CustomerName:       c.CustomerName,
		ContactNumber:      c.ContactNumber,
		Email:              c.Email,
		Address:            c.Address,
		ProductType:        c.ProductType,
		Brand:              c.Brand,
		ProductModel:       c.ProductModel,
		Description:        c.Description,
		Status:             c.Status,
		TechnicianDetails:  c.TechnicianDetails,
		TechnicianFeedback: c.TechnicianFeedback,
		CustomerFeedback:   c.CustomerFeedback,
	}
}

func TestLoginErrorsNameTheField(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rec := api.do(t, http.MethodPost, "/login", "", models.LoginRequest{Username: "asha", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrCodeInvalidPassword, decode[models.ErrorResponse](t, rec).ErrorCode)

	rec = api.do(t, http.MethodPost, "/login", "", models.LoginRequest{Username: "nobody", Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrCodeUserNotFound, decode[models.ErrorResponse](t, rec).ErrorCode)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/register", "", models.RegisterUserRequest{
		Username: "asha", Password: "short", FullName: "Asha", PhoneNumber: "12345",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, models.ErrCodeValidation, body.ErrorCode)
	fields := map[string]string{}
	for _, f := range body.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Enter a valid 10-digit phone number", fields["phoneNumber"])
	assert.Contains(t, fields, "password")

	api.seed(t)
	rec = api.do(t, http.MethodPost, "/register", "", models.RegisterUserRequest{
		Username: "asha", Password: "another-pass", FullName: "Asha Two", PhoneNumber: "9111111111",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestComplaintLifecycle(t *testing.T) {
	api := newTestAPI(t)
	owner, employee, customer := api.seed(t)

	rec := api.do(t, http.MethodPost, "/complaint/register", customer.Token, complaintBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Complaint](t, rec)
	assert.Equal(t, customer.UserID, created.BookedByID)
	assert.Equal(t, models.StatusPending, created.Status)

	// Unassigned employee cannot see it
	rec = api.do(t, http.MethodGet, "/complaint/by-id?complaintId="+created.ComplaintID, employee.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Customer cannot move status
	req := updateFrom(created)
	req.Status = models.StatusInProgress
	rec = api.do(t, http.MethodPut, "/complaint/update", customer.Token, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "status", decode[models.ErrorResponse](t, rec).Fields[0].Field)

	// Owner assigns and starts in one write
	req = updateFrom(created)
	req.TechnicianDetails = &models.TechnicianDetails{EmployeeID: employee.UserID}
	req.Status = models.StatusInProgress
	rec = api.do(t, http.MethodPut, "/complaint/update", owner.Token, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assigned := decode[models.Complaint](t, rec)
	assert.Equal(t, models.StatusInProgress, assigned.Status)
	assert.Equal(t, "Ravi Kumar", assigned.TechnicianDetails.FullName)

	// Resubmitting the same record is a no-op
	rec = api.do(t, http.MethodPut, "/complaint/update", owner.Token, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Employee now sees it and resolves it
	rec = api.do(t, http.MethodGet, "/complaint/assigned-to", employee.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, rec)["count"])

	note := "Replaced relay"
	req = updateFrom(assigned)
	req.Status = models.StatusResolved
	req.TechnicianFeedback = &note
	rec = api.do(t, http.MethodPut, "/complaint/update", employee.Token, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resolved := decode[models.Complaint](t, rec)
	require.NotNil(t, resolved.ClosedAt)

	// Feedback only by the booking customer
	fb := models.UserFeedbackRequest{ComplaintID: created.ComplaintID, CustomerFeedback: "Great service"}
	rec = api.do(t, http.MethodPost, "/complaint/user-feedback", employee.Token, fb)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(t, http.MethodPost, "/complaint/user-feedback", customer.Token, fb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/complaint/resolved-list", customer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, rec)["count"])

	// Reopen returns it to work with the technician kept
	rec = api.do(t, http.MethodPost, "/complaint/reopen", customer.Token, models.ReopenComplaintRequest{ComplaintID: created.ComplaintID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reopened := decode[models.Complaint](t, rec)
	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.NotNil(t, reopened.ReopenedAt)
	assert.Nil(t, reopened.ClosedAt)

	// Owner clears the assignee: status drops to PENDING in the same write
	req = updateFrom(reopened)
	req.TechnicianDetails = &models.TechnicianDetails{EmployeeID: models.UnassignedEmployeeID}
	rec = api.do(t, http.MethodPut, "/complaint/update", owner.Token, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cleared := decode[models.Complaint](t, rec)
	assert.Equal(t, models.StatusPending, cleared.Status)
	assert.Nil(t, cleared.TechnicianDetails)
}

func TestRoleGatedRoutes(t *testing.T) {
	api := newTestAPI(t)
	owner, employee, customer := api.seed(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/complaint/list", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/complaint/list", customer.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/users/employees", employee.Token, nil).Code)

	rec := api.do(t, http.MethodGet, "/users/employees", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, rec)["count"])

	rec = api.do(t, http.MethodGet, "/me", customer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "asha", me["username"])
	assert.NotContains(t, me, "passwordHash")

	rec = api.do(t, http.MethodGet, "/complaint/raised-by?userId="+owner.UserID, customer.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	_, employee, customer := api.seed(t)

	rec := api.do(t, http.MethodPost, "/complaint/register", customer.Token, complaintBody())
	created := decode[models.Complaint](t, rec)

	rec = api.do(t, http.MethodGet, "/complaint/"+created.ComplaintID+"/permissions", customer.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Fields map[string]struct {
			Editable bool `json:"editable"`
			Visible  bool `json:"visible"`
			Required bool `json:"required"`
		} `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Fields["basic"].Editable)
	assert.True(t, body.Fields["basic"].Required)
	assert.False(t, body.Fields["technicianDetails"].Editable)
	assert.False(t, body.Fields["customerFeedback"].Editable, "not resolved yet")

	rec = api.do(t, http.MethodGet, "/complaint/"+created.ComplaintID+"/permissions", employee.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/complaint/CMP-missing/permissions", customer.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	send := func(purpose models.OTPPurpose, identifier string) *httptest.ResponseRecorder {
		return api.do(t, http.MethodPost, "/otp/send", "", models.SendOTPRequest{Identifier: identifier, Purpose: purpose})
	}

	rec := send(models.OTPPurposeForgotUsername, "9876543210")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := decode[models.SendOTPResponse](t, rec).DebugOTP
	require.Len(t, code, 6)

	rec = send(models.OTPPurposeForgotUsername, "9876543210")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	cool := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, models.ErrCodeOTPCooldown, cool.ErrorCode)
	assert.Greater(t, cool.RetryAfter, 0)

	// Wrong code → 400 on the otp field
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = api.do(t, http.MethodPost, "/forgot-username", "", models.ForgotUsernameRequest{PhoneNumber: "9876543210", OTP: wrong})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "otp", decode[models.ErrorResponse](t, rec).Fields[0].Field)

	rec = api.do(t, http.MethodPost, "/forgot-username", "", models.ForgotUsernameRequest{PhoneNumber: "9876543210", OTP: code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "asha", decode[models.ForgotUsernameResponse](t, rec).Username)

	// Code is single use
	rec = api.do(t, http.MethodPost, "/forgot-username", "", models.ForgotUsernameRequest{PhoneNumber: "9876543210", OTP: code})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown phone → 404, distinct from OTP errors
	rec = api.do(t, http.MethodPost, "/forgot-username", "", models.ForgotUsernameRequest{PhoneNumber: "9111111111", OTP: "123456"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.ErrCodeUserNotFound, decode[models.ErrorResponse](t, rec).ErrorCode)

	// Reset password needs its own fresh code
	rec = send(models.OTPPurposeResetPassword, "9876543210")
	require.Equal(t, http.StatusOK, rec.Code)
	resetCode := decode[models.SendOTPResponse](t, rec).DebugOTP
	rec = api.do(t, http.MethodPost, "/forgot-password", "", models.ForgotPasswordRequest{
		Username: "asha", PhoneNumber: "9876543210", OTP: resetCode, NewPassword: "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	api.login(t, "asha", "brand-new-pass")
}

func TestValidateUserMismatch(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t)

	rec := api.do(t, http.MethodPost, "/otp/send", "", models.SendOTPRequest{Identifier: "9000000002", Purpose: models.OTPPurposeValidateUser})
	require.Equal(t, http.StatusOK, rec.Code)
	code := decode[models.SendOTPResponse](t, rec).DebugOTP

	rec = api.do(t, http.MethodPost, "/validate-user", "", models.ValidateUserRequest{Username: "asha", PhoneNumber: "9000000002", OTP: code})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrCodeIdentityMismatch, decode[models.ErrorResponse](t, rec).ErrorCode)
}

func TestHealthLive(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UP", decode[handler.HealthResponse](t, rec).Status)
}
