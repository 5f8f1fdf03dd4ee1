// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FallbackBehavior controls what an integration does when it is disabled or
// unreachable: "mock" substitutes a locally generated result, "error"
// surfaces the failure to the caller.
type FallbackBehavior string

const (
	FallbackMock  FallbackBehavior = "mock"
	FallbackError FallbackBehavior = "error"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Email       EmailConfig
	Push        PushConfig
	WhatsApp    WhatsAppConfig
	QuickBooks  QuickBooksConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type EmailConfig struct {
	Enabled  bool
	Provider string // "smtp" or "ses"

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string

	FromEmail string
	FromName  string
	// Staff distribution lists notified on order creation.
	AdminList     []string
	WarehouseList []string
}

type PushConfig struct {
	Enabled        bool
	FCMServerKey   string
	FCMEndpoint    string
	TimeoutSeconds int
}

type WhatsAppConfig struct {
	Enabled        bool
	AccountSID     string
	AuthToken      string
	FromNumber     string
	AdminNumbers   []string
	TimeoutSeconds int
}

type QuickBooksConfig struct {
	Enabled        bool
	BaseURL        string
	RealmID        string
	AccessToken    string
	TimeoutSeconds int
	Fallback       FallbackBehavior
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "franchise_supply"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Email: EmailConfig{
			Enabled:            getEnvAsBool("EMAIL_ENABLED", false),
			Provider:           getEnv("EMAIL_PROVIDER", "smtp"),
			SMTPHost:           getEnv("SMTP_HOST", ""),
			SMTPPort:           getEnv("SMTP_PORT", "587"),
			SMTPUsername:       getEnv("SMTP_USERNAME", ""),
			SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
			SESRegion:          getEnv("SES_REGION", "us-east-1"),
			SESAccessKeyID:     getEnv("SES_ACCESS_KEY_ID", ""),
			SESSecretAccessKey: getEnv("SES_SECRET_ACCESS_KEY", ""),
			FromEmail:          getEnv("FROM_EMAIL", "orders@franchisehub.com"),
			FromName:           getEnv("FROM_NAME", "Franchise Supply"),
			AdminList:          getEnvAsList("EMAIL_ADMIN_LIST"),
			WarehouseList:      getEnvAsList("EMAIL_WAREHOUSE_LIST"),
		},
		Push: PushConfig{
			Enabled:        getEnvAsBool("PUSH_ENABLED", false),
			FCMServerKey:   getEnv("FCM_SERVER_KEY", ""),
			FCMEndpoint:    getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			TimeoutSeconds: getEnvAsInt("PUSH_TIMEOUT", 10),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:        getEnvAsBool("WHATSAPP_ENABLED", false),
			AccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber:     getEnv("TWILIO_WHATSAPP_FROM", ""),
			AdminNumbers:   getEnvAsList("WHATSAPP_ADMIN_NUMBERS"),
			TimeoutSeconds: getEnvAsInt("WHATSAPP_TIMEOUT", 10),
		},
		QuickBooks: QuickBooksConfig{
			Enabled:        getEnvAsBool("QB_INTEGRATION_ENABLED", false),
			BaseURL:        getEnv("QB_BASE_URL", "https://quickbooks.api.intuit.com"),
			RealmID:        getEnv("QB_REALM_ID", ""),
			AccessToken:    getEnv("QB_ACCESS_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("QB_TIMEOUT", 15),
			Fallback:       FallbackBehavior(getEnv("QB_FALLBACK", string(FallbackMock))),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.QuickBooks.Fallback != FallbackMock && c.QuickBooks.Fallback != FallbackError {
		return fmt.Errorf("QB_FALLBACK must be %q or %q", FallbackMock, FallbackError)
	}

	if c.Email.Enabled && c.Email.Provider != "smtp" && c.Email.Provider != "ses" {
		return fmt.Errorf("EMAIL_PROVIDER must be \"smtp\" or \"ses\"")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
