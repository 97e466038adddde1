package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"repairdesk/models"
)

// CleanPhoneNumber strips every non-digit character
func CleanPhoneNumber(phone string) string {
	var b strings.Builder
	for _, char := range phone {
		if char >= '0' && char <= '9' {
			b.WriteRune(char)
		}
	}
	return b.String()
}

// NormalizePhone returns the 10-digit form of phone, or false if it has any other length.
// A leading +91 country code or 0 trunk prefix is dropped.
func NormalizePhone(phone string) (string, bool) {
	clean := CleanPhoneNumber(phone)
	switch {
	case len(clean) == 12 && strings.HasPrefix(clean, "91"):
		clean = clean[2:]
	case len(clean) == 11 && strings.HasPrefix(clean, "0"):
		clean = clean[1:]
	}
	if len(clean) != 10 {
		return "", false
	}
	return clean, true
}

// NormalizeEmail lowercases and validates an email address
func NormalizeEmail(email string) (string, bool) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

// GenerateSecureOTP generates a cryptographically secure numeric code of the given length
func GenerateSecureOTP(length int) (string, error) {
	if length < 4 || length > 10 {
		return "", fmt.Errorf("unsupported otp length %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// GenerateComplaintID generates a unique complaint id
// Format: CMP-YYYYMMDD-{8 hex}
func GenerateComplaintID() string {
	datePrefix := time.Now().UTC().Format("20060102")
	return fmt.Sprintf("CMP-%s-%s", datePrefix, uuid.New().String()[:8])
}

var rolePrefix = map[models.Role]string{
	models.RoleOwner:    "OWN",
	models.RoleEmployee: "EMP",
	models.RoleCustomer: "CUS",
}

// GenerateUserID generates a user id whose prefix names the role, e.g. EMP-1a2b3c4d
func GenerateUserID(role models.Role) string {
	prefix, ok := rolePrefix[role]
	if !ok {
		prefix = "USR"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
