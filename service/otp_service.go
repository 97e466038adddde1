package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"repairdesk/config"
	"repairdesk/metrics"
	"repairdesk/models"
	"repairdesk/notification"
	"repairdesk/utils"
)

// OTPService issues and verifies one-time codes for account recovery.
// A code is bound to the purpose and identifier it was issued for and is single use.
type OTPService struct {
	store    OTPStore
	notifier Notifier
	cfg      config.OTPConfig
}

// NewOTPService creates a new OTP service
func NewOTPService(store OTPStore, notifier Notifier, cfg config.OTPConfig) *OTPService {
	return &OTPService{store: store, notifier: notifier, cfg: cfg}
}

// otpKey scopes a code to one recovery step and one identifier
func otpKey(purpose models.OTPPurpose, identifier string) string {
	return string(purpose) + ":" + identifier
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// resolveIdentifier normalises a phone number or email and reports its channel.
// An empty channel is inferred from the identifier.
func resolveIdentifier(identifier string, channel models.OTPChannel) (string, models.OTPChannel, error) {
	if channel == "" {
		channel = models.OTPChannelPhone
		if strings.Contains(identifier, "@") {
			channel = models.OTPChannelEmail
		}
	}
	switch channel {
	case models.OTPChannelPhone:
		phone, ok := utils.NormalizePhone(identifier)
		if !ok {
			return "", "", invalidField("identifier", "Enter a valid 10-digit phone number")
		}
		return phone, channel, nil
	case models.OTPChannelEmail:
		email, ok := utils.NormalizeEmail(identifier)
		if !ok {
			return "", "", invalidField("identifier", "Enter a valid email address")
		}
		return email, channel, nil
	}
	return "", "", invalidField("channel", "Channel must be phone or email")
}

func deliveryChannel(ch models.OTPChannel) notification.Channel {
	if ch == models.OTPChannelEmail {
		return notification.ChannelEmail
	}
	return notification.ChannelSMS
}

// Send issues a fresh code for req.Purpose to req.Identifier.
// Within the cooldown window it returns a *CooldownError. When delivery is not possible and
// dev mode is on, the code is returned as DebugOTP instead.
func (s *OTPService) Send(ctx context.Context, req models.SendOTPRequest) (*models.SendOTPResponse, error) {
	if !req.Purpose.Valid() {
		return nil, invalidField("purpose", "Unknown OTP purpose")
	}
	identifier, channel, err := resolveIdentifier(req.Identifier, req.Channel)
	if err != nil {
		return nil, err
	}
	ch := deliveryChannel(channel)
	configured := s.notifier.Configured(ch)
	if !configured && !s.cfg.DevMode {
		metrics.OTPSent.WithLabelValues(string(channel), "failed").Inc()
		return nil, fmt.Errorf("%w: %s channel not configured", ErrDeliveryFailed, ch)
	}

	key := otpKey(req.Purpose, identifier)
	ok, remaining, err := s.store.AcquireCooldown(ctx, key, s.cfg.Cooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.OTPSent.WithLabelValues(string(channel), "cooldown").Inc()
		return nil, &CooldownError{Remaining: remaining}
	}

	code, err := utils.GenerateSecureOTP(s.cfg.Length)
	if err != nil {
		s.releaseCooldown(ctx, key)
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	if err := s.store.SaveCode(ctx, key, hashCode(code), s.cfg.TTL); err != nil {
		s.releaseCooldown(ctx, key)
		return nil, err
	}

	resp := &models.SendOTPResponse{
		Success:   true,
		Message:   "OTP sent",
		ExpiresIn: int(s.cfg.TTL.Seconds()),
		Cooldown:  int(s.cfg.Cooldown.Seconds()),
	}

	if configured {
		sendErr := s.notifier.Send(ctx, ch, notification.Message{
			Recipient: identifier,
			Subject:   "Your verification code",
			Body:      fmt.Sprintf("Your RepairDesk verification code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes())),
		})
		if sendErr == nil {
			metrics.OTPSent.WithLabelValues(string(channel), "sent").Inc()
			log.Printf("[OTP] sent %s code via %s", req.Purpose, ch)
			return resp, nil
		}
		log.Printf("[OTP] %s delivery failed: %v", ch, sendErr)
		if !s.cfg.DevMode {
			metrics.OTPSent.WithLabelValues(string(channel), "failed").Inc()
			if _, err := s.store.DeleteCode(ctx, key); err != nil {
				log.Printf("[OTP] failed to drop undelivered code: %v", err)
			}
			s.releaseCooldown(ctx, key)
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
		}
	}

	log.Printf("[OTP DEBUG] %s %s: %s", req.Purpose, identifier, code)
	metrics.OTPSent.WithLabelValues(string(channel), "dev").Inc()
	resp.Message = "OTP sent (DEV MODE)"
	resp.DebugOTP = code
	return resp, nil
}

func (s *OTPService) releaseCooldown(ctx context.Context, key string) {
	if err := s.store.ReleaseCooldown(ctx, key); err != nil {
		log.Printf("[OTP] failed to release cooldown: %v", err)
	}
}

// Verify checks code against the one issued for purpose and identifier.
// Every call claims an attempt before comparing, so at most MaxAttempts guesses are ever
// compared against a code however many arrive at once. A matching code is consumed, and
// only the caller whose delete removes it succeeds.
func (s *OTPService) Verify(ctx context.Context, purpose models.OTPPurpose, identifier, code string) error {
	normalized, _, err := resolveIdentifier(identifier, "")
	if err != nil {
		return err
	}
	key := otpKey(purpose, normalized)

	rec, err := s.store.ClaimAttempt(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		metrics.OTPVerified.WithLabelValues(string(purpose), "expired").Inc()
		return ErrOTPExpired
	}
	if rec.Attempts > s.cfg.MaxAttempts {
		if _, err := s.store.DeleteCode(ctx, key); err != nil {
			log.Printf("[OTP] failed to burn exhausted code: %v", err)
		}
		metrics.OTPVerified.WithLabelValues(string(purpose), "exhausted").Inc()
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(strings.TrimSpace(code))), []byte(rec.CodeHash)) != 1 {
		if rec.Attempts >= s.cfg.MaxAttempts {
			if _, err := s.store.DeleteCode(ctx, key); err != nil {
				return err
			}
			metrics.OTPVerified.WithLabelValues(string(purpose), "exhausted").Inc()
			return ErrInvalidOTP
		}
		metrics.OTPVerified.WithLabelValues(string(purpose), "invalid").Inc()
		return ErrInvalidOTP
	}

	removed, err := s.store.DeleteCode(ctx, key)
	if err != nil {
		return err
	}
	if !removed {
		// consumed or burned by a concurrent request
		metrics.OTPVerified.WithLabelValues(string(purpose), "expired").Inc()
		return ErrOTPExpired
	}
	metrics.OTPVerified.WithLabelValues(string(purpose), "ok").Inc()
	return nil
}
