package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OTP      OTPConfig
	SMS      SMSConfig
	Email    EmailConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DatabaseURL string // DATABASE_URL - full DSN, takes precedence over individual vars
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
}

// DSN returns the MySQL data source name. Timestamps are parsed in UTC.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	return d.User + ":" + d.Password + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.DBName +
		"?parseTime=true&charset=utf8mb4&loc=UTC"
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Host           string
	AllowedOrigins string // CORS_ALLOWED_ORIGINS, comma separated; "*" for any
	MetricsToken   string // METRICS_TOKEN; empty leaves /metrics open
}

// RedisConfig holds the OTP store connection
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
}

// OTPConfig holds one-time code settings
type OTPConfig struct {
	Length      int
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
	DevMode     bool // OTP_DEV_MODE: echo the code back as debug_otp when delivery is not configured
}

// SMSConfig holds Twilio credentials; empty means SMS is not configured
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// EmailConfig holds SendGrid settings; empty APIKey means email is not configured
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getEnv("DB_HOST", "127.0.0.1"),
			Port:        getEnv("DB_PORT", "3306"),
			User:        os.Getenv("DB_USER"),
			Password:    os.Getenv("DB_PASSWORD"),
			DBName:      getEnv("DB_NAME", "repairdesk"),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("PORT", getEnv("SERVER_PORT", "8080")),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MetricsToken:   os.Getenv("METRICS_TOKEN"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "repairdesk-dev-secret-change-in-production"),
			TokenTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		},
		OTP: OTPConfig{
			Length:      getEnvInt("OTP_LENGTH", 6),
			TTL:         time.Duration(getEnvInt("OTP_TTL_SECONDS", 600)) * time.Second,
			Cooldown:    time.Duration(getEnvInt("OTP_COOLDOWN_SECONDS", 60)) * time.Second,
			MaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 3),
			DevMode:     getEnvBool("OTP_DEV_MODE", false),
		},
		SMS: SMSConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_SMS_FROM"),
		},
		Email: EmailConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@repairdesk.local"),
			FromName:  getEnv("SENDGRID_FROM_NAME", "RepairDesk"),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
