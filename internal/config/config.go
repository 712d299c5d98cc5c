package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level configuration for Arcadia.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Messaging MessagingConfig `koanf:"messaging"`
	Payment   PaymentConfig   `koanf:"payment"`
	Outbox    OutboxConfig    `koanf:"outbox"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // "debug" or "release"
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// MessagingConfig holds the Kafka connection settings.
type MessagingConfig struct {
	Brokers         []string `koanf:"brokers"`
	ConsumersEnable bool     `koanf:"consumers_enable"`
}

// PaymentConfig holds the payment service client settings.
type PaymentConfig struct {
	BaseURL        string `koanf:"base_url"`
	AttemptTimeout string `koanf:"attempt_timeout"` // parsed as time.Duration
	MaxAttempts    int    `koanf:"max_attempts"`
}

// EffectiveAttemptTimeout parses the per-attempt timeout, falling back to
// five seconds on an empty or unparseable value.
func (c PaymentConfig) EffectiveAttemptTimeout() time.Duration {
	d, err := time.ParseDuration(c.AttemptTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// OutboxConfig holds the relay polling settings.
type OutboxConfig struct {
	PollInterval string `koanf:"poll_interval"` // parsed as time.Duration
	BatchSize    int    `koanf:"batch_size"`
}

// EffectivePollInterval parses the poll interval, falling back to one
// second.
func (c OutboxConfig) EffectivePollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// CatalogConfig holds the catalog validation limits.
type CatalogConfig struct {
	MaxNameLength        int     `koanf:"max_name_length"`
	MaxDescriptionLength int     `koanf:"max_description_length"`
	MaxPrice             float64 `koanf:"max_price"`
}

// Load loads the configuration from the given file path and environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"server.port":                    8080,
		"server.host":                    "0.0.0.0",
		"server.max_body_size_mb":        1,
		"server.mode":                    "release",
		"database.dsn":                   "postgres://localhost:5432/arcadia?sslmode=disable",
		"database.max_open_conns":        25,
		"database.max_idle_conns":        25,
		"database.auto_migrate":          true,
		"messaging.brokers":              []string{"localhost:9092"},
		"messaging.consumers_enable":     true,
		"payment.base_url":               "http://localhost:8081",
		"payment.attempt_timeout":        "5s",
		"payment.max_attempts":           3,
		"outbox.poll_interval":           "1s",
		"outbox.batch_size":              100,
		"catalog.max_name_length":        200,
		"catalog.max_description_length": 4000,
		"catalog.max_price":              1000,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// 2. Load from file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Load from Environment Variables
	// ARCADIA_SERVER__PORT=9090 overrides server.port
	if err := k.Load(env.Provider("ARCADIA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ARCADIA_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	if len(c.Messaging.Brokers) == 0 {
		return fmt.Errorf("messaging.brokers must not be empty")
	}
	if c.Payment.MaxAttempts < 1 {
		return fmt.Errorf("invalid payment.max_attempts: %d", c.Payment.MaxAttempts)
	}
	if c.Payment.AttemptTimeout != "" {
		if _, err := time.ParseDuration(c.Payment.AttemptTimeout); err != nil {
			return fmt.Errorf("invalid payment.attempt_timeout: %w", err)
		}
	}
	if c.Outbox.PollInterval != "" {
		if _, err := time.ParseDuration(c.Outbox.PollInterval); err != nil {
			return fmt.Errorf("invalid outbox.poll_interval: %w", err)
		}
	}
	return nil
}
