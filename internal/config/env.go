package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines the HTTP surface: port, upload limits and the number
// of extractions allowed to run at once.
type ServerConfig struct {
	Port          string
	MaxUploadMB   int64
	MaxBatchFiles int
	MaxConcurrent int
}

// ResultsConfig defines where extracted output is kept and for how long.
type ResultsConfig struct {
	Dir           string
	Retention     time.Duration
	SweepInterval time.Duration
	RedisURL      string
	Password      string
	S3Bucket      string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Results ResultsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfsplit.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfsplit",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Server defaults
	cfg.Server = ServerConfig{
		Port:          getEnv("PORT", "8000"),
		MaxUploadMB:   int64(parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64)),
		MaxBatchFiles: parseInt(getEnv("MAX_BATCH_FILES", "50"), 50),
		MaxConcurrent: parseInt(getEnv("MAX_CONCURRENT_EXTRACTIONS", "8"), 8),
	}

	// Results defaults
	cfg.Results = ResultsConfig{
		Dir:           getEnv("RESULT_DIR", "uploads"),
		Retention:     parseDuration(getEnv("RESULT_RETENTION", "1h"), time.Hour),
		SweepInterval: parseDuration(getEnv("RESULT_SWEEP_INTERVAL", "10m"), 10*time.Minute),
		RedisURL:      getEnv("REDIS_URL", ""),
		Password:      getEnv("RESULT_PASSWORD", ""),
		S3Bucket:      getEnv("RESULTS_S3_BUCKET", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
