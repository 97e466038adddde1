package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairdesk/models"
)

func TestNormalizePhone(t *testing.T) {
	got, ok := NormalizePhone("(987) 654-3210")
	assert.True(t, ok)
	assert.Equal(t, "9876543210", got)

	got, ok = NormalizePhone("+91 98765 43210")
	assert.True(t, ok)
	assert.Equal(t, "9876543210", got)

	got, ok = NormalizePhone("09876543210")
	assert.True(t, ok)
	assert.Equal(t, "9876543210", got)

	_, ok = NormalizePhone("+1 555 987 654 3210")
	assert.False(t, ok)

	_, ok = NormalizePhone("12345")
	assert.False(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	got, ok := NormalizeEmail("Asha@Example.com")
	assert.True(t, ok)
	assert.Equal(t, "asha@example.com", got)

	_, ok = NormalizeEmail("Asha <asha@example.com>")
	assert.False(t, ok)
	_, ok = NormalizeEmail("not-an-email")
	assert.False(t, ok)
}

func TestGenerateSecureOTP(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateSecureOTP(6)
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}

	_, err := GenerateSecureOTP(2)
	assert.Error(t, err)
}

func TestGenerateIDs(t *testing.T) {
	assert.Regexp(t, `^CMP-\d{8}-[0-9a-f]{8}$`, GenerateComplaintID())
	assert.Regexp(t, `^EMP-[0-9a-f]{8}$`, GenerateUserID(models.RoleEmployee))
	assert.Regexp(t, `^CUS-[0-9a-f]{8}$`, GenerateUserID(models.RoleCustomer))
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateJWT("EMP-0001", models.RoleEmployee, secret, 1)
	require.NoError(t, err)

	claims, err := ParseJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "EMP-0001", claims.UserID)
	assert.Equal(t, models.RoleEmployee, claims.Role)

	_, err = ParseJWT(token, []byte("other-secret"))
	assert.Error(t, err)
}

func TestParseJWT_RejectsExpiredAndUnknownRole(t *testing.T) {
	secret := []byte("test-secret")

	expired, err := GenerateJWT("CUS-0001", models.RoleCustomer, secret, -1)
	require.NoError(t, err)
	_, err = ParseJWT(expired, secret)
	assert.Error(t, err)

	claims := SessionClaims{
		UserID: "X-1",
		Role:   "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseJWT(bad, secret)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword("s3cret-pass", hash))
	assert.Error(t, CheckPassword("wrong", hash))
}
