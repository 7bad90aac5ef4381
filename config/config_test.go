package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("AIRBNB_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderRapidAPI, cfg.Listings.Provider)
	assert.Equal(t, "sqlite://app.db", cfg.Storage.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.Storage.CacheTimeout)
	assert.Equal(t, 20*time.Second, cfg.Listings.SearchTimeout)
	assert.Equal(t, 2*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 8, cfg.Runtime.MaxConcurrency)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, 1, cfg.Listings.PagesToScrape)
	assert.Equal(t, 20, cfg.Listings.ListingsPerPage)
	assert.False(t, cfg.Listings.FilterAmenities)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("AIRBNB_API_KEY", "key")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{TelegramToken: "t"}
		c.Listings.Provider = ProviderRapidAPI
		c.Listings.APIKey = "k"
		c.Runtime.MaxConcurrency = 1
		c.Runtime.Timezone = "UTC"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"rapidapi without key", func(c *Config) { c.Listings.APIKey = "" }, true},
		{"browser without key", func(c *Config) { c.Listings.Provider = ProviderBrowser; c.Listings.APIKey = "" }, false},
		{"unknown provider", func(c *Config) { c.Listings.Provider = "ftp" }, true},
		{"zero concurrency", func(c *Config) { c.Runtime.MaxConcurrency = 0 }, true},
		{"bad timezone", func(c *Config) { c.Runtime.Timezone = "Mars/Olympus" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDebugOverridesLevel(t *testing.T) {
	c := &Config{}
	c.Logger.Level = "warn"
	c.Logger.Debug = true
	assert.Equal(t, "debug", c.LogLevel())
}
