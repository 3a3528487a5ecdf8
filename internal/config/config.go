package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/neogan74/embeddb/database"
)

// Config represents the configuration of an embeddb binary
type Config struct {
	Database database.Configuration
	Log      LogConfig
	Tracing  TracingConfig
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	SamplingRatio  float64
	InsecureConn   bool
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	mode, err := database.ParseStorageMode(getEnvString("EMBEDDB_STORAGE_MODE", string(database.OnDisk)))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	verbosity, err := database.ParseVerbosity(getEnvString("EMBEDDB_VERBOSITY", "none"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config := &Config{
		Database: database.Configuration{
			Name:        getEnvString("EMBEDDB_NAME", database.DefaultName),
			StorageMode: mode,
			Verbosity:   verbosity,
			Engine:      getEnvString("EMBEDDB_ENGINE", ""),
			DataDir:     getEnvString("EMBEDDB_DATA_DIR", database.DefaultDataDir),
			SyncWrites:  getEnvBool("EMBEDDB_SYNC_WRITES", true),
		},
		Log: LogConfig{
			Level:  getEnvString("EMBEDDB_LOG_LEVEL", "info"),
			Format: getEnvString("EMBEDDB_LOG_FORMAT", "text"),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("EMBEDDB_TRACING_ENABLED", false),
			Endpoint:       getEnvString("EMBEDDB_TRACING_ENDPOINT", "otel-collector:4318"),
			ServiceName:    getEnvString("EMBEDDB_TRACING_SERVICE_NAME", "embeddb"),
			ServiceVersion: getEnvString("EMBEDDB_TRACING_SERVICE_VERSION", "0.1.0"),
			SamplingRatio:  getEnvFloat("EMBEDDB_TRACING_SAMPLING_RATIO", 1.0),
			InsecureConn:   getEnvBool("EMBEDDB_TRACING_INSECURE", true),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing endpoint must be specified when tracing is enabled")
		}
		if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
			return fmt.Errorf("invalid tracing sampling ratio: %v (must be between 0 and 1)", c.Tracing.SamplingRatio)
		}
	}

	return nil
}

// getEnvString gets a string environment variable with a default value
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
