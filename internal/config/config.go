package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAIBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Config holds everything main needs to wire the service.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	DBMaxOpenConns int

	UploadDir   string
	CORSOrigins []string

	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisURL        string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	NotifyChannel        string
	SeedDoctors          bool
	ReadingRetentionDays int
	AdminJWTSecret       string
}

// Production reports whether internal error details must be hidden.
func (c *Config) Production() bool { return c.Env == "production" }

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "5000"),
		Env:            getEnv("APP_ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RedisURL:       os.Getenv("REDIS_URL"),
		AIAPIKey:       getEnv("AI_API_KEY", os.Getenv("GEMINI_API_KEY")),
		AIBaseURL:      getEnv("AI_BASE_URL", DefaultAIBaseURL),
		AIModel:        getEnv("AI_MODEL", "gemini-2.0-flash"),
		NotifyChannel:  getEnv("NOTIFY_CHANNEL", "sensor_readings"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL must be set")
	}

	var err error
	if cfg.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 1000); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReadingRetentionDays, err = getInt("READING_RETENTION_DAYS", 0); err != nil {
		return nil, err
	}
	if cfg.SeedDoctors, err = getBool("SEED_DOCTORS", true); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return cfg, nil
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
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
