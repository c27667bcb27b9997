package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("TARGET_SEGMENT_SECONDS", "")
	t.Setenv("SEGMENT_FANOUT", "")
	t.Setenv("PREFER_STYLE_REFERENCE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.TargetSegmentSeconds != 4 {
		t.Fatalf("TargetSegmentSeconds mismatch: got %d want 4", cfg.TargetSegmentSeconds)
	}
	if cfg.MaxDurationSeconds != 600 {
		t.Fatalf("MaxDurationSeconds mismatch: got %d want 600", cfg.MaxDurationSeconds)
	}
	if cfg.SegmentFanout != 4 {
		t.Fatalf("SegmentFanout mismatch: got %d want 4", cfg.SegmentFanout)
	}
	if cfg.SegmentRetries != 2 {
		t.Fatalf("SegmentRetries mismatch: got %d want 2", cfg.SegmentRetries)
	}
	if !cfg.PreferStyleReference {
		t.Fatal("PreferStyleReference should default to true")
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL should be optional, got %q", cfg.DatabaseURL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TARGET_SEGMENT_SECONDS", "6")
	t.Setenv("SEGMENT_FANOUT", "2")
	t.Setenv("SEGMENT_RETRY_DELAY_MS", "250")
	t.Setenv("PREFER_STYLE_REFERENCE", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TargetSegmentSeconds != 6 {
		t.Fatalf("TargetSegmentSeconds mismatch: got %d want 6", cfg.TargetSegmentSeconds)
	}
	if cfg.SegmentFanout != 2 {
		t.Fatalf("SegmentFanout mismatch: got %d want 2", cfg.SegmentFanout)
	}
	if cfg.SegmentRetryDelay != 250*time.Millisecond {
		t.Fatalf("SegmentRetryDelay mismatch: got %v", cfg.SegmentRetryDelay)
	}
	if cfg.PreferStyleReference {
		t.Fatal("PreferStyleReference should be false")
	}
}

func TestLoadConfigRejectsNonPositiveSegmentSeconds(t *testing.T) {
	t.Setenv("TARGET_SEGMENT_SECONDS", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative TARGET_SEGMENT_SECONDS")
	}
}

func TestLoadConfigIgnoresMalformedInt(t *testing.T) {
	t.Setenv("SEGMENT_FANOUT", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SegmentFanout != 4 {
		t.Fatalf("SegmentFanout should fall back to default, got %d", cfg.SegmentFanout)
	}
}
