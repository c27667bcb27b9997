package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StorageDir  string

	VideoAPIKey   string
	VideoModel    string
	VideoBaseURL  string
	RenderBaseURL string

	TargetSegmentSeconds int
	MaxDurationSeconds   int
	SegmentFanout        int
	SegmentRetries       int
	SegmentRetryDelay    time.Duration
	SegmentCallTimeout   time.Duration
	PreferStyleReference bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it, job state
// lives only in memory and is lost on restart.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StorageDir:  getEnv("STORAGE_DIR", "data/artifacts"),

		VideoAPIKey:   os.Getenv("VIDEO_API_KEY"),
		VideoModel:    getEnv("VIDEO_MODEL", "veo-3.0-generate-001"),
		VideoBaseURL:  getEnv("VIDEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		RenderBaseURL: os.Getenv("RENDER_BASE_URL"),

		TargetSegmentSeconds: getEnvInt("TARGET_SEGMENT_SECONDS", 4),
		MaxDurationSeconds:   getEnvInt("MAX_DURATION_SECONDS", 600),
		SegmentFanout:        getEnvInt("SEGMENT_FANOUT", 4),
		SegmentRetries:       getEnvInt("SEGMENT_RETRIES", 2),
		SegmentRetryDelay:    time.Millisecond * time.Duration(getEnvInt("SEGMENT_RETRY_DELAY_MS", 500)),
		SegmentCallTimeout:   time.Second * time.Duration(getEnvInt("SEGMENT_CALL_TIMEOUT_SECONDS", 120)),
		PreferStyleReference: getEnvBool("PREFER_STYLE_REFERENCE", true),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:   splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.TargetSegmentSeconds <= 0 {
		return nil, fmt.Errorf("TARGET_SEGMENT_SECONDS must be positive")
	}
	if cfg.MaxDurationSeconds <= 0 {
		return nil, fmt.Errorf("MAX_DURATION_SECONDS must be positive")
	}

	return cfg, nil
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

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
