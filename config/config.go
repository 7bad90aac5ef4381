package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ProviderRapidAPI = "rapidapi"
	ProviderBrowser  = "browser"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN" env-required:"true"`

	Listings ListingsConfig
	Storage  StorageConfig
	Model    ModelConfig
	Runtime  RuntimeConfig
	Logger   LoggerConfig

	NATSURL     string `env:"NATS_URL"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

type ListingsConfig struct {
	Provider      string        `env:"LISTINGS_PROVIDER" env-default:"rapidapi"`
	APIKey        string        `env:"AIRBNB_API_KEY"`
	BaseURL       string        `env:"RAPIDAPI_BASE_URL" env-default:"https://airbnb13.p.rapidapi.com"`
	Host          string        `env:"RAPIDAPI_HOST" env-default:"airbnb13.p.rapidapi.com"`
	ChromeBin     string        `env:"CHROME_BIN"`
	RateLimitMs   int           `env:"RATE_LIMIT_MS" env-default:"2000"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" env-default:"20s"`
	MaxRetries    int           `env:"MAX_RETRIES" env-default:"3"`

	// FilterAmenities enforces selected amenities on provider results.
	FilterAmenities bool `env:"FILTER_AMENITIES" env-default:"false"`

	// Browser provider only.
	PagesToScrape   int `env:"PAGES_TO_SCRAPE" env-default:"1"`
	ListingsPerPage int `env:"LISTINGS_PER_PAGE" env-default:"20"`
}

type StorageConfig struct {
	DatabaseURL  string        `env:"DATABASE_URL" env-default:"sqlite://app.db"`
	RedisURL     string        `env:"REDIS_URL" env-default:"redis://localhost:6379"`
	CacheTimeout time.Duration `env:"CACHE_TIMEOUT" env-default:"1h"`
	SnapshotTTL  time.Duration `env:"SNAPSHOT_TTL" env-default:"24h"`
	RawDumpPath  string        `env:"RAW_DUMP_PATH"`
}

type ModelConfig struct {
	Path    string        `env:"MODEL_PATH" env-default:"data/model.json"`
	Timeout time.Duration `env:"CLASSIFIER_TIMEOUT" env-default:"2s"`
}

type RuntimeConfig struct {
	MaxConcurrency int    `env:"MAX_CONCURRENCY" env-default:"8"`
	Timezone       string `env:"TIMEZONE" env-default:"UTC"`
}

type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"console"`
	Debug    bool   `env:"DEBUG" env-default:"false"`
}

// Load reads the .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings cleanenv cannot express as tags.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return errors.New("config: TELEGRAM_TOKEN is required")
	}
	switch c.Listings.Provider {
	case ProviderRapidAPI:
		if c.Listings.APIKey == "" {
			return errors.New("config: AIRBNB_API_KEY is required for the rapidapi provider")
		}
	case ProviderBrowser:
	default:
		return fmt.Errorf("config: unknown LISTINGS_PROVIDER %q", c.Listings.Provider)
	}
	if c.Runtime.MaxConcurrency < 1 {
		return errors.New("config: MAX_CONCURRENCY must be at least 1")
	}
	if _, err := time.LoadLocation(c.Runtime.Timezone); err != nil {
		return fmt.Errorf("config: TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Runtime.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogLevel is the effective level; DEBUG overrides LOG_LEVEL.
func (c *Config) LogLevel() string {
	if c.Logger.Debug {
		return "debug"
	}
	return c.Logger.Level
}
