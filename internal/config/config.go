package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Session
	SessionSecret string // Used for encrypting cookies (min 32 chars)
	RedisURL      string // Optional session storage, e.g. "redis://localhost:6379/0"

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// LLM
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	LLMMaxTokens    int
	LLMRatePerSec   float64
	FetchUserAgent  string
	FetchTimeout    time.Duration
	FetchPrivateIPs bool // Allow the metadata fetcher to reach private addresses (dev only)

	// Media storage (MinIO / S3)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaPublicURL string // Public base URL objects are served from, e.g. "https://cdn.fliqk.to/media"

	// Localization
	DefaultLocale    string
	SupportedLocales []string

	// Background jobs
	ThumbnailRefreshInterval time.Duration // 0 disables the refresher
	ThumbnailRetryAge        time.Duration // How long a failed thumbnail waits before another try
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		ServerAddr:      getEnv("SERVER_ADDR", ":3000"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/fliqk?sslmode=disable"),
		SessionSecret:   getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		RedisURL:        getEnv("REDIS_URL", ""),
		CORSOrigins:     getEnv("CORS_ORIGINS", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 300),
		LLMRatePerSec:   getEnvFloat("LLM_RATE_PER_SEC", 2),
		FetchUserAgent:  getEnv("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; fliqkbot/1.0; +https://fliqk.to)"),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchPrivateIPs: getEnv("FETCH_PRIVATE_IPS", "") != "",

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "fliqk-media"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "") != "",
		MediaPublicURL: getEnv("MEDIA_PUBLIC_URL", ""),

		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		SupportedLocales: splitList(getEnv("SUPPORTED_LOCALES", "en,es")),

		ThumbnailRefreshInterval: getEnvDuration("THUMBNAIL_REFRESH_INTERVAL", 0),
		ThumbnailRetryAge:        getEnvDuration("THUMBNAIL_RETRY_AGE", 7*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsLLMEnabled returns true if a server-side OpenAI key is configured.
func (c *Config) IsLLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// IsMediaEnabled returns true if MinIO credentials are configured.
func (c *Config) IsMediaEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}
