package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	// Timezone decides which calendar day counts as "today".
	Timezone string `envconfig:"TASKFLOW_TIMEZONE" default:"UTC"`

	// Storage
	StorageBackend   string `envconfig:"STORAGE_BACKEND" default:"file"` // memory | file | sqlite | redis | postgres
	StoragePath      string `envconfig:"STORAGE_PATH" default:"./data"`
	StorageNamespace string `envconfig:"STORAGE_NAMESPACE"`
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword    string `envconfig:"REDIS_PASSWORD"`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	PostgresDSN      string `envconfig:"POSTGRES_DSN"`

	// Board metadata and optional starter tasks (YAML).
	BoardSeedPath string `envconfig:"BOARD_SEED_PATH"`

	// AI (optional: the board runs without it)
	AIProvider      string        `envconfig:"AI_PROVIDER" default:"gemini"` // gemini | anthropic
	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	APIKey          string        `envconfig:"API_KEY"` // legacy name for the Gemini key
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	AIModel         string        `envconfig:"AI_MODEL"`
	AIMaxTokens     int           `envconfig:"AI_MAX_TOKENS" default:"4096"`
	AITimeout       time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`

	// API
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"40"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`
}

// GeminiKey returns GEMINI_API_KEY, falling back to API_KEY.
func (c *Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// AIEnabled returns true if the selected provider has a credential.
func (c *Config) AIEnabled() bool {
	if strings.EqualFold(c.AIProvider, "anthropic") {
		return c.AnthropicAPIKey != ""
	}
	return c.GeminiKey() != ""
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TASKFLOW_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// CORSOriginList returns the parsed list of allowed origins.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StorageBackend) {
	case "memory", "file", "sqlite", "redis":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch strings.ToLower(c.AIProvider) {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
