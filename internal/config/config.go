package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ExtractorConfig holds settings for the external OCR/AI extraction service.
type ExtractorConfig struct {
	BaseURL    string
	TimeoutSec int
}

// JobsConfig holds settings for the background extraction worker pool.
// MaxAttempts and BackoffSec drive the retry policy; LeaseTTLSec bounds how
// long a crashed worker can lock out a document.
type JobsConfig struct {
	Workers     int
	MaxAttempts int
	BackoffSec  int
	LeaseTTLSec int
}

// UploadConfig holds constraints applied to incoming documents.
type UploadConfig struct {
	MaxSizeBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Extractor ExtractorConfig
	Jobs      JobsConfig
	Upload    UploadConfig

	// HighAmountThreshold is the business-rule bound above which a
	// validation submission gets a supervisor-review warning.
	HighAmountThreshold float64
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Extractor: ExtractorConfig{
			BaseURL:    getEnv("EXTRACTOR_BASE_URL", ""),
			TimeoutSec: getEnvInt("EXTRACTOR_TIMEOUT_SEC", 30),
		},
		Jobs: JobsConfig{
			Workers:     getEnvInt("JOBS_WORKERS", 4),
			MaxAttempts: getEnvInt("JOBS_MAX_ATTEMPTS", 3),
			BackoffSec:  getEnvInt("JOBS_BACKOFF_SEC", 10),
			LeaseTTLSec: getEnvInt("JOBS_LEASE_TTL_SEC", 60),
		},
		Upload: UploadConfig{
			MaxSizeBytes: int64(getEnvInt("UPLOAD_MAX_SIZE_BYTES", 10*1024*1024)),
		},
		HighAmountThreshold: getEnvFloat("HIGH_AMOUNT_THRESHOLD", 10000),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
