package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reelcraft_test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QueueConcurrency != 3 {
		t.Fatalf("QueueConcurrency = %d, want 3", cfg.QueueConcurrency)
	}
	if cfg.QueueStartsPerSecond != 5 {
		t.Fatalf("QueueStartsPerSecond = %d, want 5", cfg.QueueStartsPerSecond)
	}
	if cfg.StageRetries != 2 {
		t.Fatalf("StageRetries = %d, want 2", cfg.StageRetries)
	}
	if cfg.StaleJobTimeout != 30*time.Minute {
		t.Fatalf("StaleJobTimeout = %v, want 30m", cfg.StaleJobTimeout)
	}
	if cfg.UseObjectStorage() {
		t.Fatal("UseObjectStorage should be false without S3_ENDPOINT")
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reelcraft_test")
	t.Setenv("QUEUE_CONCURRENCY", "8")
	t.Setenv("QUEUE_STARTS_PER_SECOND", "10")
	t.Setenv("S3_ENDPOINT", "minio.local:9000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.QueueConcurrency != 8 {
		t.Fatalf("QueueConcurrency = %d, want 8", cfg.QueueConcurrency)
	}
	if cfg.QueueStartsPerSecond != 10 {
		t.Fatalf("QueueStartsPerSecond = %d, want 10", cfg.QueueStartsPerSecond)
	}
	if !cfg.UseObjectStorage() {
		t.Fatal("UseObjectStorage should be true with S3_ENDPOINT set")
	}
}

func TestLoadConfigRejectsBadQueueSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reelcraft_test")
	t.Setenv("QUEUE_CONCURRENCY", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
