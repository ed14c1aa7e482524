package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Client    ClientConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Crawl     CrawlConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the scrape backend HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 4000
	Mode string // "debug", "release", "test"; default: "release"

	// FetchTimeout bounds the upstream fetch of the target page.
	FetchTimeout time.Duration // default: 10s
}

// ClientConfig controls the scrape orchestrator and the liveness probe.
type ClientConfig struct {
	// BaseURL is the scrape backend root; requests go to BaseURL + "/scrape".
	BaseURL string // default: "http://localhost:4000"

	// Timeout is the wall-clock limit for one attempt.
	Timeout time.Duration // default: 30s

	// MaxAttempts is the total number of attempts, first one included.
	MaxAttempts int // default: 3

	// RetryBackoff is waited between attempts.
	RetryBackoff time.Duration // default: 0

	// ProbeTimeout bounds the liveness probe request.
	ProbeTimeout time.Duration // default: 5s

	// ProbeURL is the known-good target the probe asks the backend to scrape.
	ProbeURL string // default: "https://example.com"
}

// StoreConfig selects the key/value driver for session state.
type StoreConfig struct {
	// Driver is "memory", "sqlite" or "redis".
	Driver string // default: "sqlite"

	// Path is the sqlite database file.
	Path string // default: "sitepulse.db"

	RedisAddr     string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // default: "sitepulse:"
}

// AuthConfig controls API key authentication on the backend.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting on the backend.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CORSConfig lists browser origins allowed to call the backend.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration // default: 1h
}

// CrawlConfig controls related page discovery.
type CrawlConfig struct {
	// RelatedPages is the default number of linked pages scraped per request.
	RelatedPages int // default: 0

	// RatePerSecond paces related page fetches.
	RatePerSecond float64 // default: 1

	// Concurrency bounds in-flight related page fetches.
	Concurrency int // default: 2
}

// WebhookConfig enables outcome notifications over HTTP.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json", "text" or "pretty"; default: "json"

	// File, when set, receives a copy of every log line with rotation.
	File string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         envOr("SITEPULSE_HOST", "0.0.0.0"),
			Port:         envIntOr("SITEPULSE_PORT", 4000),
			Mode:         envOr("SITEPULSE_MODE", "release"),
			FetchTimeout: envDurationOr("SITEPULSE_FETCH_TIMEOUT", 10*time.Second),
		},
		Client: ClientConfig{
			BaseURL:      strings.TrimRight(envOr("SITEPULSE_BACKEND_URL", "http://localhost:4000"), "/"),
			Timeout:      envDurationOr("SITEPULSE_TIMEOUT", 30*time.Second),
			MaxAttempts:  envIntOr("SITEPULSE_MAX_ATTEMPTS", 3),
			RetryBackoff: envDurationOr("SITEPULSE_RETRY_BACKOFF", 0),
			ProbeTimeout: envDurationOr("SITEPULSE_PROBE_TIMEOUT", 5*time.Second),
			ProbeURL:     envOr("SITEPULSE_PROBE_URL", "https://example.com"),
		},
		Store: StoreConfig{
			Driver:        envOr("SITEPULSE_STORE", "sqlite"),
			Path:          envOr("SITEPULSE_STORE_PATH", "sitepulse.db"),
			RedisAddr:     envOr("SITEPULSE_REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("SITEPULSE_REDIS_PASSWORD"),
			RedisDB:       envIntOr("SITEPULSE_REDIS_DB", 0),
			RedisPrefix:   envOr("SITEPULSE_REDIS_PREFIX", "sitepulse:"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITEPULSE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SITEPULSE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITEPULSE_RATE_RPS", 5.0),
			Burst:             envIntOr("SITEPULSE_RATE_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("SITEPULSE_CORS_ORIGINS", []string{
				"http://localhost:5173",
				"http://localhost:8080",
				"http://localhost:8081",
				"http://localhost:3000",
				"http://localhost:3002",
			}),
			MaxAge: envDurationOr("SITEPULSE_CORS_MAX_AGE", time.Hour),
		},
		Crawl: CrawlConfig{
			RelatedPages:  envIntOr("SITEPULSE_RELATED_PAGES", 0),
			RatePerSecond: envFloatOr("SITEPULSE_CRAWL_RPS", 1.0),
			Concurrency:   envIntOr("SITEPULSE_CRAWL_CONCURRENCY", 2),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SITEPULSE_WEBHOOK_URL"),
			Secret: os.Getenv("SITEPULSE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SITEPULSE_LOG_LEVEL", "info"),
			Format: envOr("SITEPULSE_LOG_FORMAT", "json"),
			File:   os.Getenv("SITEPULSE_LOG_FILE"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
