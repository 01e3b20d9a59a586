package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBConn         string
	DBMaxConns     int
	DBInitTimeout  time.Duration
	StorageBackend string
	LogLevel       string
	JWTSecret      string
	JWTExpire      time.Duration
	AllowedOrigins []string

	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SenderEmail    string
	DigestSchedule string
}

// NewConfig loads configuration from environment variables, reading a .env
// file first when one is present
func NewConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "5000"),
		DBConn:         getEnv("DB_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=expenses sslmode=disable"),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 5*time.Second),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpire:      getEnvDuration("JWT_EXPIRE", 24*time.Hour),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SenderEmail:    getEnv("SENDER_EMAIL", "no-reply@expense-service.local"),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * MON"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	switch c.StorageBackend {
	case BackendPostgres:
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: must be %s or %s", c.StorageBackend, BackendPostgres, BackendMemory)
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBInitTimeout <= 0 {
		return fmt.Errorf("DB_INIT_TIMEOUT must be positive")
	}
	if c.JWTExpire <= 0 {
		return fmt.Errorf("JWT_EXPIRE must be positive")
	}
	return nil
}

// DigestEnabled reports whether SMTP is configured for the weekly digest
func (c *Config) DigestEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
