package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	OCR      OCRConfig
	OpenAI   OpenAIConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// StorageConfig holds blob storage configuration
type StorageConfig struct {
	BasePath string
}

// UploadConfig holds upload intake limits
type UploadConfig struct {
	MaxBytes int64
}

// OCRConfig holds extraction pipeline configuration
type OCRConfig struct {
	Provider       string // "openai" | "tesseract"
	Timeout        time.Duration
	Workers        int
	QueueSize      int
	MaxConcurrent  int64 // global cap on in-flight provider calls
	RequestsPerSec float64
	Burst          int
	TesseractLangs string
}

// OpenAIConfig holds the OpenAI provider configuration
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			BasePath: getEnv("STORAGE_PATH", "./data/storage"),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", 10<<20),
		},
		OCR: OCRConfig{
			Provider:       getEnv("OCR_PROVIDER", "openai"),
			Timeout:        getEnvAsDuration("OCR_TIMEOUT", 90*time.Second),
			Workers:        getEnvAsInt("OCR_WORKERS", 4),
			QueueSize:      getEnvAsInt("OCR_QUEUE_SIZE", 256),
			MaxConcurrent:  getEnvAsInt64("OCR_MAX_CONCURRENT", 4),
			RequestsPerSec: getEnvAsFloat64("OCR_REQUESTS_PER_SEC", 2),
			Burst:          getEnvAsInt("OCR_BURST", 4),
			TesseractLangs: getEnv("TESSERACT_LANGS", "ron+eng"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrValidation)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrValidation)
	}
	if c.Upload.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "UPLOAD_MAX_BYTES must be positive", ErrValidation)
	}
	if c.OCR.Provider == "openai" && c.OpenAI.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai provider", ErrValidation)
	}
	return nil
}
