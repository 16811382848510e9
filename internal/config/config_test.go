package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless, "product pages default to GUI mode")
	assert.Equal(t, 30*time.Second, cfg.Browser.NavTimeout)
	assert.Equal(t, 15*time.Second, cfg.Browser.SearchTimeout)
	assert.Equal(t, 0, cfg.Crawler.WorkerCount)
	assert.Equal(t, 15, cfg.Crawler.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Crawler.BatchCooldown)
	assert.Equal(t, 10, cfg.Crawler.MaxReviewPages)
	assert.Equal(t, 200, cfg.Crawler.MinReviewCount)
	assert.Equal(t, "292x292ex", cfg.Crawler.ThumbnailSize)
	assert.Equal(t, "postgres", cfg.Storage.Backend)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BROWSER_HEADLESS", "true")
	t.Setenv("BROWSER_SEARCH_TIMEOUT", "20s")
	t.Setenv("CRAWLER_BATCH_SIZE", "5")
	t.Setenv("CRAWLER_BATCH_COOLDOWN", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 20*time.Second, cfg.Browser.SearchTimeout)
	assert.Equal(t, 5, cfg.Crawler.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.BatchCooldown)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Crawler.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative worker count",
			mutate:  func(c *Config) { c.Crawler.WorkerCount = -1 },
			wantErr: true,
		},
		{
			name:    "zero review pages",
			mutate:  func(c *Config) { c.Crawler.MaxReviewPages = 0 },
			wantErr: true,
		},
		{
			name:    "file storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "file" },
			wantErr: false,
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "s3" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
