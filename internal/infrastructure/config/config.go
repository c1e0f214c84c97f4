package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/TextWarden/internal/shared/utils"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Pipeline  PipelineConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Settings  SettingsConfig
}

// ServerConfig holds proxy server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	BodyLimit       int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ProviderConfig selects and tunes the analysis provider.
type ProviderConfig struct {
	// Kind is "gemini" or "proxy"
	Kind      string        `envconfig:"PROVIDER" default:"gemini"`
	BaseURL   string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Model     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	ProxyURL  string        `envconfig:"PROXY_URL"`
	APIKey    string        `envconfig:"TEXTWARDEN_API_KEY"`
	Timeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
	RetryMax  int           `envconfig:"PROVIDER_RETRY_MAX" default:"2"`
	RateLimit float64       `envconfig:"PROVIDER_RPS" default:"0"`
}

// PipelineConfig holds analysis policy values.
type PipelineConfig struct {
	QuietPeriod     time.Duration `envconfig:"QUIET_PERIOD" default:"1s"`
	MinLength       int           `envconfig:"MIN_TEXT_LENGTH" default:"5"`
	CacheMaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"1000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
	MaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	MaxBackups  int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed origins for the proxy.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// SettingsConfig points at the user settings file.
type SettingsConfig struct {
	Path string `envconfig:"SETTINGS_FILE"`
	Site string `envconfig:"TEXTWARDEN_SITE"`
}

// Load reads an optional .env file, then environment variables.
// Variables already set in the environment win over .env entries.
func Load(dotenv ...string) (*Config, error) {
	if err := loadDotenv(dotenv...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration or returns the defaults on error.
func LoadOrDefault(dotenv ...string) *Config {
	cfg, err := Load(dotenv...)
	if err != nil {
		return Default()
	}
	return cfg
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", f, err)
		}
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case "gemini":
	case "proxy":
		if c.Provider.ProxyURL == "" {
			return errors.New("PROXY_URL is required when PROVIDER=proxy")
		}
	default:
		return fmt.Errorf("unknown provider %q (want gemini or proxy)", c.Provider.Kind)
	}
	if c.Pipeline.QuietPeriod <= 0 {
		return errors.New("QUIET_PERIOD must be positive")
	}
	if c.Pipeline.MinLength < 1 {
		return errors.New("MIN_TEXT_LENGTH must be at least 1")
	}
	if c.Server.BodyLimit <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			BodyLimit:       utils.MaxJSONSize,
			ShutdownTimeout: 10 * time.Second,
		},
		Provider: ProviderConfig{
			Kind:     "gemini",
			BaseURL:  "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.5-flash",
			Timeout:  30 * time.Second,
			RetryMax: 2,
		},
		Pipeline: PipelineConfig{
			QuietPeriod:     time.Second,
			MinLength:       5,
			CacheMaxEntries: 1000,
		},
		Logging: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}
