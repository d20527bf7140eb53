// Package config loads the server's environment-driven ambient configuration and its
// startup-validated species/hatch documents.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig is the env-driven configuration for cmd/server and the ingestion
// commands: store DSN, archive/weather endpoints, and HTTP listen settings.
type ServerConfig struct {
	Port             string
	DatabaseDSN      string
	ArchiveBaseURL   string
	WeatherBaseURL   string
	SpeciesConfigDir string
	HatchConfigDir   string
	LogLevel         string
	LogFormat        string
	StoreMaxConns    int32
	StoreConnTimeout time.Duration
	CORSAllowOrigins string
}

// LoadServerConfig reads ServerConfig from the process environment, applying the
// documented defaults for anything unset.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Port:             getEnv("PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", ""),
		ArchiveBaseURL:   getEnv("ARCHIVE_BASE_URL", ""),
		WeatherBaseURL:   getEnv("WEATHER_BASE_URL", "https://weather.example.invalid"),
		SpeciesConfigDir: getEnv("SPECIES_CONFIG_DIR", "./config/species"),
		HatchConfigDir:   getEnv("HATCH_CONFIG_DIR", "./config/hatches"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		StoreMaxConns:    getEnvInt32("STORE_MAX_CONNS", 10),
		StoreConnTimeout: getEnvDuration("STORE_CONN_TIMEOUT", 5*time.Second),
		CORSAllowOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt32(key string, defaultValue int32) int32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return defaultValue
	}
	return int32(parsed)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// RequireNonEmpty is a small startup guard: several commands need a DSN or base URL to
// be explicitly set rather than silently running against the documented defaults.
func RequireNonEmpty(name, value string) error {
	if value == "" {
		return fmt.Errorf("config: %s must not be empty", name)
	}
	return nil
}
