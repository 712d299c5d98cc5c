package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "release", cfg.Server.Mode)
	require.Equal(t, []string{"localhost:9092"}, cfg.Messaging.Brokers)
	require.True(t, cfg.Messaging.ConsumersEnable)
	require.Equal(t, 3, cfg.Payment.MaxAttempts)
	require.Equal(t, 5*time.Second, cfg.Payment.EffectiveAttemptTimeout())
	require.Equal(t, time.Second, cfg.Outbox.EffectivePollInterval())
	require.Equal(t, 100, cfg.Outbox.BatchSize)
	require.Equal(t, 200, cfg.Catalog.MaxNameLength)
	require.Equal(t, float64(1000), cfg.Catalog.MaxPrice)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "arcadia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: 9090
  mode: "debug"
payment:
  base_url: "http://payments.internal:8081"
  attempt_timeout: "2s"
outbox:
  poll_interval: "250ms"
  batch_size: 25
catalog:
  max_price: 500
`), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.Mode)
	require.Equal(t, "http://payments.internal:8081", cfg.Payment.BaseURL)
	require.Equal(t, 2*time.Second, cfg.Payment.EffectiveAttemptTimeout())
	require.Equal(t, 250*time.Millisecond, cfg.Outbox.EffectivePollInterval())
	require.Equal(t, 25, cfg.Outbox.BatchSize)
	require.Equal(t, float64(500), cfg.Catalog.MaxPrice)
	// Untouched sections keep their defaults.
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 3, cfg.Payment.MaxAttempts)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "arcadia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: 9090
`), 0o644))

	t.Setenv("ARCADIA_SERVER__PORT", "9999")
	t.Setenv("ARCADIA_DATABASE__DSN", "postgres://env:env@db:5432/arcadia")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, "postgres://env:env@db:5432/arcadia", cfg.Database.DSN)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "invalid port",
			yaml:    "server:\n  port: -1\n",
			wantErr: "invalid server.port",
		},
		{
			name:    "zero payment attempts",
			yaml:    "payment:\n  max_attempts: 0\n",
			wantErr: "invalid payment.max_attempts",
		},
		{
			name:    "unparseable attempt timeout",
			yaml:    "payment:\n  attempt_timeout: \"soon\"\n",
			wantErr: "invalid payment.attempt_timeout",
		},
		{
			name:    "unparseable poll interval",
			yaml:    "outbox:\n  poll_interval: \"often\"\n",
			wantErr: "invalid outbox.poll_interval",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "arcadia.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tc.yaml), 0o644))

			_, err := Load(cfgPath)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
