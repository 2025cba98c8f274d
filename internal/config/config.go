package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"IP_ENV" default:"development"`

	HTTPPort    int           `envconfig:"IP_HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"IP_HTTP_TIMEOUT" default:"15s"`

	FetchTimeout time.Duration `envconfig:"IP_FETCH_TIMEOUT" default:"5m"`
	ChunkSize    int           `envconfig:"IP_CHUNK_SIZE" default:"32768"`
	MaxBodySize  int64         `envconfig:"IP_MAX_BODY_SIZE" default:"104857600"`
	UserAgent    string        `envconfig:"IP_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:105.0) Gecko/20100101"`

	QueueCapacity int `envconfig:"IP_QUEUE_CAPACITY" default:"64"`

	// ImageURLTemplate takes a seed and an edge size, in that order.
	ImageURLTemplate string `envconfig:"IP_IMAGE_URL_TEMPLATE" default:"https://picsum.photos/seed/%d/%d"`
	ImageSize        int    `envconfig:"IP_IMAGE_SIZE" default:"512"`

	ShutdownTimeout time.Duration `envconfig:"IP_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"IP_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"IP_LOG_FORMAT" default:"json"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive: %d", c.ChunkSize)
	}

	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max body size must be positive: %d", c.MaxBodySize)
	}

	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive: %d", c.QueueCapacity)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if c.ImageURLTemplate == "" {
		return fmt.Errorf("image URL template cannot be empty")
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("image size must be positive: %d", c.ImageSize)
	}

	return nil
}

// ImageURL builds the demo fetch URL for a seed.
func (c *Config) ImageURL(seed int) string {
	return fmt.Sprintf(c.ImageURLTemplate, seed, c.ImageSize)
}
