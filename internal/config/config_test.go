package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("EXTRACTOR_BASE_URL", "http://extractor:8000")
	os.Setenv("JOBS_MAX_ATTEMPTS", "5")
	os.Setenv("HIGH_AMOUNT_THRESHOLD", "25000")
	defer func() {
		os.Unsetenv("EXTRACTOR_BASE_URL")
		os.Unsetenv("JOBS_MAX_ATTEMPTS")
		os.Unsetenv("HIGH_AMOUNT_THRESHOLD")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "http://extractor:8000", cfg.Extractor.BaseURL)
	assert.Equal(t, 30, cfg.Extractor.TimeoutSec)
	assert.Equal(t, 5, cfg.Jobs.MaxAttempts)
	assert.Equal(t, 10, cfg.Jobs.BackoffSec)
	assert.Equal(t, 60, cfg.Jobs.LeaseTTLSec)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, 25000.0, cfg.HighAmountThreshold)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
