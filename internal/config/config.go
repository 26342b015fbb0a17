package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the render worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"render-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"render.work"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"render-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"render.done"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	BatchSize     int64         `env:"BATCH_SIZE" envDefault:"10"`

	// Template configuration
	TemplateDir       string        `env:"TEMPLATE_DIR"`
	TemplateKeyPrefix string        `env:"TEMPLATE_KEY_PREFIX" envDefault:"jxtl:template:"`
	TemplateTTL       time.Duration `env:"TEMPLATE_TTL" envDefault:"0s"`
	TemplateCacheSize int           `env:"TEMPLATE_CACHE_SIZE" envDefault:"1024"`
	MaxTemplateSize   int64         `env:"MAX_TEMPLATE_SIZE" envDefault:"1048576"`
	TrimBlockNewlines bool          `env:"TRIM_BLOCK_NEWLINES" envDefault:"false"`
	LeftDelim         string        `env:"LEFT_DELIM" envDefault:"{{"`
	RightDelim        string        `env:"RIGHT_DELIM" envDefault:"}}"`

	// Document configuration
	XMLSkipRoot     bool  `env:"XML_SKIP_ROOT" envDefault:"false"`
	MaxDocumentSize int64 `env:"MAX_DOCUMENT_SIZE" envDefault:"10485760"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.ResultStream == c.StreamKey {
		return fmt.Errorf("RESULT_STREAM must differ from STREAM_KEY")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive")
	}

	if c.TemplateKeyPrefix == "" {
		return fmt.Errorf("TEMPLATE_KEY_PREFIX is required")
	}

	if c.TemplateTTL < 0 {
		return fmt.Errorf("TEMPLATE_TTL must be non-negative")
	}

	if c.TemplateCacheSize <= 0 {
		return fmt.Errorf("TEMPLATE_CACHE_SIZE must be positive")
	}

	if c.MaxTemplateSize <= 0 {
		return fmt.Errorf("MAX_TEMPLATE_SIZE must be positive")
	}

	if c.LeftDelim == "" || c.RightDelim == "" {
		return fmt.Errorf("LEFT_DELIM and RIGHT_DELIM must be non-empty")
	}

	if c.MaxDocumentSize <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_SIZE must be positive")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if c.LogEncoding != "json" && c.LogEncoding != "console" {
		return fmt.Errorf("LOG_ENCODING must be json or console")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, TemplateDir=%s, TrimBlockNewlines=%v, XMLSkipRoot=%v, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.TemplateDir,
		c.TrimBlockNewlines,
		c.XMLSkipRoot,
		c.HealthPort,
		c.LogLevel,
	)
}
