package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 32768, cfg.ChunkSize)
	assert.Equal(t, 64, cfg.QueueCapacity)
	assert.Equal(t, 5*time.Minute, cfg.FetchTimeout)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("IP_HTTP_PORT", "9090")
	t.Setenv("IP_LOG_FORMAT", "text")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			HTTPPort:         8080,
			ChunkSize:        1024,
			MaxBodySize:      1 << 20,
			QueueCapacity:    16,
			UserAgent:        "agent",
			ImageURLTemplate: "https://example/%d/%d",
			ImageSize:        256,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.HTTPPort = 0 }},
		{"bad chunk size", func(c *Config) { c.ChunkSize = -1 }},
		{"bad body size", func(c *Config) { c.MaxBodySize = 0 }},
		{"bad queue capacity", func(c *Config) { c.QueueCapacity = 0 }},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }},
		{"empty url template", func(c *Config) { c.ImageURLTemplate = "" }},
		{"bad image size", func(c *Config) { c.ImageSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base().Validate())
}

func TestImageURL(t *testing.T) {
	cfg := &Config{ImageURLTemplate: "https://picsum.photos/seed/%d/%d", ImageSize: 512}
	assert.Equal(t, "https://picsum.photos/seed/7/512", cfg.ImageURL(7))
}
