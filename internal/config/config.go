package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Workday  WorkdayConfig
	Query    QueryConfig
	Sync     SyncConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// WorkdayConfig holds the expected working minutes per day type.
// The half-day presence threshold is deliberately not configurable,
// see service/attendance.HalfDayThresholdMinutes.
type WorkdayConfig struct {
	WeekdayExpectedMinutes  int
	SaturdayExpectedMinutes int
	DefaultTimezone         string
}

// QueryConfig bounds the query layer.
type QueryConfig struct {
	MaxWindowDays int
}

// SyncConfig configures the device punch sync job.
type SyncConfig struct {
	GatewayURL     string
	OrganizationID string
	Interval       time.Duration
}

func Load() (*Config, error) {
	// A missing .env file is fine in deployed environments; env vars win either way.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance-engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Workday configuration
	weekdayMinutes, err := strconv.Atoi(getEnv("WORKDAY_EXPECTED_MINUTES", "558"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKDAY_EXPECTED_MINUTES: %w", err)
	}
	saturdayMinutes, err := strconv.Atoi(getEnv("SATURDAY_EXPECTED_MINUTES", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid SATURDAY_EXPECTED_MINUTES: %w", err)
	}

	config.Workday = WorkdayConfig{
		WeekdayExpectedMinutes:  weekdayMinutes,
		SaturdayExpectedMinutes: saturdayMinutes,
		DefaultTimezone:         getEnv("DEFAULT_TIMEZONE", "Asia/Jakarta"),
	}

	// Query layer configuration
	maxWindowDays, err := strconv.Atoi(getEnv("MAX_QUERY_WINDOW_DAYS", "92"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_QUERY_WINDOW_DAYS: %w", err)
	}
	config.Query = QueryConfig{MaxWindowDays: maxWindowDays}

	// Device sync configuration
	syncInterval, err := time.ParseDuration(getEnv("DEVICE_SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_SYNC_INTERVAL: %w", err)
	}
	config.Sync = SyncConfig{
		GatewayURL:     getEnv("DEVICE_GATEWAY_URL", ""),
		OrganizationID: getEnv("DEVICE_ORG_ID", "default"),
		Interval:       syncInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Workday.WeekdayExpectedMinutes <= 0 {
		return fmt.Errorf("WORKDAY_EXPECTED_MINUTES must be positive")
	}
	if c.Workday.SaturdayExpectedMinutes < 0 {
		return fmt.Errorf("SATURDAY_EXPECTED_MINUTES must not be negative")
	}
	if c.Query.MaxWindowDays <= 0 {
		return fmt.Errorf("MAX_QUERY_WINDOW_DAYS must be positive")
	}
	if c.Sync.GatewayURL == "" {
		return fmt.Errorf("DEVICE_GATEWAY_URL is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
