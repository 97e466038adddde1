package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"repairdesk/config"
)

// Channel is a delivery route
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Message is one outbound notification
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Sender is the interface for notification senders
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Channel() Channel
}

// EmailSender sends email through SendGrid
type EmailSender struct {
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
	endpoint  string
}

// NewEmailSender creates an email sender. Returns nil when no API key is configured.
func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	if cfg.APIKey == "" {
		return nil
	}
	return &EmailSender{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    http.DefaultClient,
		endpoint:  sendGridURL,
	}
}

// Channel returns the email channel type
func (s *EmailSender) Channel() Channel {
	return ChannelEmail
}

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

// Send posts one message to SendGrid. Retries are left to the caller's circuit breaker.
func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrInvalidRecipient
	}
	body := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]interface{}{{"email": msg.Recipient}}},
		},
		"from":    map[string]string{"email": s.fromEmail, "name": s.fromName},
		"subject": msg.Subject,
		"content": []map[string]string{{"type": "text/plain", "value": msg.Body}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &NotificationError{Message: "sendgrid request failed", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NotificationError{Message: fmt.Sprintf("sendgrid status %d", resp.StatusCode)}
	}
	return nil
}

// SMSSender sends SMS through Twilio
type SMSSender struct {
	client *twilio.RestClient
	from   string
}

// NewSMSSender creates an SMS sender. Returns nil when Twilio credentials are missing.
func NewSMSSender(cfg config.SMSConfig) *SMSSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{client: client, from: cfg.From}
}

// Channel returns the SMS channel type
func (s *SMSSender) Channel() Channel {
	return ChannelSMS
}

// Send sends an SMS. Recipient is a 10-digit national number; India's +91 prefix is added.
func (s *SMSSender) Send(_ context.Context, msg Message) error {
	if len(msg.Recipient) != 10 {
		return ErrInvalidRecipient
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo("+91" + msg.Recipient)
	params.SetBody(msg.Body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return &NotificationError{Message: "twilio send failed", Err: err}
	}
	return nil
}

// Errors
var (
	ErrInvalidRecipient     = &NotificationError{Message: "invalid recipient"}
	ErrChannelNotConfigured = &NotificationError{Message: "channel not configured"}
	ErrChannelUnavailable   = &NotificationError{Message: "channel temporarily unavailable"}
)

// NotificationError represents a notification error
type NotificationError struct {
	Message string
	Err     error
}

func (e *NotificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
