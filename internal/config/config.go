package config

import (
	"os"
	"strconv"
	"time"

	"artbench/domain/stats"
	"artbench/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Files    FileConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings. URL is optional; only
// database-backed modes require it.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	QueryTimeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalysisConfig holds the defaults for the statistical testing job.
type AnalysisConfig struct {
	Alpha            float64
	CorrectionMethod stats.CorrectionMethod
	GateOnANOVA      bool
	MinSamples       int
	WorkerLimit      int
}

// FileConfig holds file system paths
type FileConfig struct {
	ArtistsFile string
	InputFile   string
	ExportFile  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	method, err := stats.ParseCorrectionMethod(getEnvOrDefault("CORRECTION_METHOD", string(stats.CorrectionBenjaminiHochberg)))
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load analysis configuration")
	}

	config := &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			QueryTimeout: getEnvDurationOrDefault("DB_QUERY_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Analysis: AnalysisConfig{
			Alpha:            getEnvFloatOrDefault("ANALYSIS_ALPHA", 0.05),
			CorrectionMethod: method,
			GateOnANOVA:      getEnvBoolOrDefault("GATE_ON_ANOVA", true),
			MinSamples:       getEnvIntOrDefault("MIN_SAMPLES", 2),
			WorkerLimit:      getEnvIntOrDefault("WORKER_LIMIT", 4),
		},
		Files: FileConfig{
			ArtistsFile: getEnvOrDefault("ARTISTS_FILE", ""),
			InputFile:   getEnvOrDefault("INPUT_FILE", ""),
			ExportFile:  getEnvOrDefault("EXPORT_FILE", ""),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks ranges that the engine would otherwise reject at run time.
func (c *Config) Validate() error {
	a := c.Analysis
	if !(a.Alpha > 0 && a.Alpha < 1) {
		return errors.ConfigInvalid("ANALYSIS_ALPHA must be in (0, 1)")
	}
	switch a.CorrectionMethod {
	case stats.CorrectionBonferroni, stats.CorrectionBenjaminiHochberg:
	default:
		return errors.ConfigInvalid("CORRECTION_METHOD must be bonferroni or benjamini_hochberg")
	}
	if a.MinSamples < 1 {
		return errors.ConfigInvalid("MIN_SAMPLES must be at least 1")
	}
	if a.WorkerLimit < 1 {
		return errors.ConfigInvalid("WORKER_LIMIT must be at least 1")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return errors.ConfigInvalid("DB_MAX_OPEN_CONNS must be at least 1")
	}
	return nil
}

// RequireDatabase fails when no DATABASE_URL was configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
