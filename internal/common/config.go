package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Mongo    MongoConfig
	Storage  StorageConfig
	Validation ValidateConfig
	Server   ServerConfig
	Job      JobConfig
	Watch    WatchConfig
}

// MongoConfig holds job-store configuration
type MongoConfig struct {
	URI            string
	Database       string
	JobsCollection string
	ConnectTimeout time.Duration
}

// StorageConfig holds blob-store configuration
type StorageConfig struct {
	Root string
}

// ValidateConfig holds downstream validation function configuration
type ValidateConfig struct {
	GatewayURL   string
	FunctionName string
	Timeout      time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// JobConfig holds processing behavior toggles
type JobConfig struct {
	DeleteZipAfterSuccess bool
}

// WatchConfig holds incoming-archive watcher configuration
type WatchConfig struct {
	Enabled     bool
	Debounce    time.Duration
	Workers     int
	InitialScan bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", ""),
			Database:       getEnv("MONGO_DB", "kjusys_db"),
			JobsCollection: getEnv("MONGO_JOBS_COLLECTION", "processing_jobs"),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "./storage"),
		},
		Validation: ValidateConfig{
			GatewayURL:   getEnv("VALIDATE_GATEWAY_URL", "http://127.0.0.1:9090"),
			FunctionName: getEnv("VALIDATE_FUNCTION_NAME", "ValidateExcelFunction"),
			Timeout:      getEnvAsDuration("VALIDATE_TIMEOUT", 2*time.Minute),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Job: JobConfig{
			DeleteZipAfterSuccess: getEnvAsBool("DELETE_ZIP_AFTER_SUCCESS", true),
		},
		Watch: WatchConfig{
			Enabled:     getEnvAsBool("WATCH_INCOMING", false),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			Workers:     getEnvAsInt("WATCH_WORKERS", 2),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return NewAppError("CONFIG_ERROR", "MONGO_URI is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Validation.FunctionName == "" {
		return NewAppError("CONFIG_ERROR", "VALIDATE_FUNCTION_NAME is required", ErrInvalidInput)
	}
	return nil
}
