// Package client is a Go client for the repairdesk REST API.
// It classifies failures the way a front end branches on them and drives the OTP recovery steps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"repairdesk/models"
	"repairdesk/permission"
)

// Client calls the repairdesk API
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.token = token
}

// do sends one request. Non-2xx answers are returned as *APIError, transport failures wrapped as they come.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.ErrorCode = body.ErrorCode
		apiErr.Message = body.Message
		apiErr.Fields = body.Fields
		apiErr.RetryAfter = body.RetryAfter
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Login exchanges credentials for a session token and keeps it for later calls
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, models.LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Register creates a customer account
func (c *Client) Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendOTP asks the server to issue a one-time code
func (c *Client) SendOTP(ctx context.Context, req models.SendOTPRequest) (*models.SendOTPResponse, error) {
	var out models.SendOTPResponse
	if err := c.do(ctx, http.MethodPost, "/otp/send", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotUsername returns the username bound to the verified identifier
func (c *Client) ForgotUsername(ctx context.Context, req models.ForgotUsernameRequest) (string, error) {
	var out models.ForgotUsernameResponse
	if err := c.do(ctx, http.MethodPost, "/forgot-username", nil, req, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

// ValidateUser checks that username and identifier belong together
func (c *Client) ValidateUser(ctx context.Context, req models.ValidateUserRequest) error {
	return c.do(ctx, http.MethodPost, "/validate-user", nil, req, nil)
}

// ForgotPassword resets the password after OTP verification
func (c *Client) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return c.do(ctx, http.MethodPost, "/forgot-password", nil, req, nil)
}

type complaintList struct {
	Complaints []models.Complaint `json:"complaints"`
	Count      int                `json:"count"`
}

func (c *Client) listComplaints(ctx context.Context, path string, query url.Values) ([]models.Complaint, error) {
	var out complaintList
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out.Complaints, nil
}

// RegisterComplaint books a new complaint
func (c *Client) RegisterComplaint(ctx context.Context, req models.RegisterComplaintRequest) (*models.Complaint, error) {
	var out models.Complaint
	if err := c.do(ctx, http.MethodPost, "/complaint/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetComplaint fetches one complaint
func (c *Client) GetComplaint(ctx context.Context, complaintID string) (*models.Complaint, error) {
	var out models.Complaint
	err := c.do(ctx, http.MethodGet, "/complaint/by-id", url.Values{"complaintId": {complaintID}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RaisedBy lists complaints booked by userID
func (c *Client) RaisedBy(ctx context.Context, userID string) ([]models.Complaint, error) {
	return c.listComplaints(ctx, "/complaint/raised-by", url.Values{"userId": {userID}})
}

// AssignedTo lists complaints assigned to employeeID
func (c *Client) AssignedTo(ctx context.Context, employeeID string) ([]models.Complaint, error) {
	return c.listComplaints(ctx, "/complaint/assigned-to", url.Values{"employeeId": {employeeID}})
}

// ListComplaints lists every complaint (OWNER)
func (c *Client) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	return c.listComplaints(ctx, "/complaint/list", nil)
}

// ResolvedList lists the complaints userID can leave feedback on
func (c *Client) ResolvedList(ctx context.Context, userID string) ([]models.Complaint, error) {
	return c.listComplaints(ctx, "/complaint/resolved-list", url.Values{"userId": {userID}})
}

// UpdateComplaint submits the complete proposed record
func (c *Client) UpdateComplaint(ctx context.Context, req models.UpdateComplaintRequest) (*models.Complaint, error) {
	var out models.Complaint
	if err := c.do(ctx, http.MethodPut, "/complaint/update", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserFeedback records the booking customer's feedback on a resolved complaint
func (c *Client) UserFeedback(ctx context.Context, complaintID, feedback string) (*models.Complaint, error) {
	var out models.Complaint
	req := models.UserFeedbackRequest{ComplaintID: complaintID, CustomerFeedback: feedback}
	if err := c.do(ctx, http.MethodPost, "/complaint/user-feedback", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reopen moves a resolved complaint back to work
func (c *Client) Reopen(ctx context.Context, complaintID string) (*models.Complaint, error) {
	var out models.Complaint
	req := models.ReopenComplaintRequest{ComplaintID: complaintID}
	if err := c.do(ctx, http.MethodPost, "/complaint/reopen", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Permissions returns the caller's per-field access on a complaint
func (c *Client) Permissions(ctx context.Context, complaintID string) (map[permission.Field]permission.FieldAccess, error) {
	var out struct {
		Fields map[permission.Field]permission.FieldAccess `json:"fields"`
	}
	path := "/complaint/" + url.PathEscape(complaintID) + "/permissions"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Fields, nil
}
