package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL     string
	Port      string
	UserAgent string
	LogLevel  string

	// Fetch policy
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	FetchMaxDelay    time.Duration
	FetchTimeout     time.Duration
	RateLimit        int

	// Result cache
	CacheDir     string
	CacheBackend string

	// Extraction model
	LLMProvider       string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	ExtractMaxRetries int

	Workers    int
	AdminToken string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	userAgent := os.Getenv("EDGAR_USER_AGENT")
	if userAgent == "" {
		return nil, fmt.Errorf("EDGAR_USER_AGENT environment variable is required")
	}

	cfg := &Config{
		PGURL:        os.Getenv("PG_URL"),
		Port:         getEnv("PORT", "8080"),
		UserAgent:    userAgent,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CacheDir:     getEnv("CACHE_DIR", "cache"),
		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		LLMBaseURL:   os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		AdminToken:   os.Getenv("ADMIN_TOKEN"),
	}

	var err error
	if cfg.FetchMaxAttempts, err = getInt("FETCH_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.ExtractMaxRetries, err = getInt("EXTRACT_MAX_RETRIES", 1); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.FetchBaseDelay, err = getDuration("FETCH_BASE_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.FetchMaxDelay, err = getDuration("FETCH_MAX_DELAY", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.FetchMaxAttempts < 1 {
		return nil, fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1, got %d", cfg.FetchMaxAttempts)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	switch cfg.CacheBackend {
	case "file", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("CACHE_BACKEND must be 'file', 'sqlite' or 'memory', got %q", cfg.CacheBackend)
	}

	return cfg, nil
}

// RequireDatabase returns an error when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.PGURL == "" {
		return fmt.Errorf("PG_URL environment variable is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
