// Package config handles loading and managing application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// PostgreSQL connection settings
	Database DatabaseConfig

	// Mercado Pago integration settings
	MercadoPago MercadoPagoConfig

	// Auth settings
	Auth AuthConfig

	// Environment is "development" or "production". The development test
	// approval endpoint is only registered in development.
	Environment string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MercadoPagoConfig holds the Mercado Pago credentials. An empty AccessToken
// switches the service to the stub gateway.
type MercadoPagoConfig struct {
	AccessToken     string
	WebhookSecret   string
	NotificationURL string
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "futevolei_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:     getEnv("MP_ACCESS_TOKEN", ""),
			WebhookSecret:   getEnv("MP_WEBHOOK_SECRET", ""),
			NotificationURL: getEnv("MP_NOTIFICATION_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Environment: getEnv("APP_ENV", "development"),
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment != "production"
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
