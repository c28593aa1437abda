package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, TrackingStrategyCounter, cfg.Tracking.Strategy)
	assert.Equal(t, 8, cfg.Tracking.ResetConcurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	content := []byte(`
server:
  port: "9090"
tracking:
  strategy: "scan"
  reset_concurrency: 2
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, TrackingStrategyScan, cfg.Tracking.Strategy)
	assert.Equal(t, 2, cfg.Tracking.ResetConcurrency)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TRACKING_STRATEGY", "scan")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, TrackingStrategyScan, cfg.Tracking.Strategy)
}

func TestLoadConfig_InvalidStrategy(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TRACKING_STRATEGY", "guess")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Database.User = "app"
	cfg.Database.Password = "pw"
	cfg.Database.Host = "db"
	cfg.Database.Port = "5433"
	cfg.Database.DBName = "tracking"

	assert.Equal(t,
		"postgres://app:pw@db:5433/tracking?sslmode=disable",
		cfg.GetPostgresConnectionString(),
	)
}
