package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Admission queue tunables. The rate cap protects the upstream model
	// API, which throttles independently of how long jobs run.
	QueueConcurrency     int
	QueueStartsPerSecond int

	StageRetries    int
	StaleJobTimeout time.Duration

	FalAPIKey       string
	FalBaseURL      string
	FalPollInterval time.Duration

	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
	StoragePath      string
	StoragePublicURL string

	CreditsPerJob int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		QueueConcurrency:     getEnvInt("QUEUE_CONCURRENCY", 3),
		QueueStartsPerSecond: getEnvInt("QUEUE_STARTS_PER_SECOND", 5),

		StageRetries:    getEnvInt("STAGE_RETRIES", 2),
		StaleJobTimeout: time.Minute * time.Duration(getEnvInt("STALE_JOB_TIMEOUT_MINUTES", 30)),

		FalAPIKey:       os.Getenv("FAL_API_KEY"),
		FalBaseURL:      getEnv("FAL_BASE_URL", "https://queue.fal.run"),
		FalPollInterval: time.Second * time.Duration(getEnvInt("FAL_POLL_INTERVAL_SECONDS", 2)),

		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),
		S3Bucket:         getEnv("S3_BUCKET", "reelcraft"),
		S3UseSSL:         getEnvBool("S3_USE_SSL", true),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/static"),

		CreditsPerJob: getEnvInt("CREDITS_PER_JOB", 1),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.QueueConcurrency < 1 {
		return nil, fmt.Errorf("QUEUE_CONCURRENCY must be at least 1")
	}
	if cfg.QueueStartsPerSecond < 1 {
		return nil, fmt.Errorf("QUEUE_STARTS_PER_SECOND must be at least 1")
	}

	return cfg, nil
}

// UseObjectStorage reports whether an S3-compatible endpoint is configured.
// Without one, the service falls back to local filesystem storage.
func (c *Config) UseObjectStorage() bool {
	return c.S3Endpoint != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
