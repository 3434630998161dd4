package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const testConfigToml = `
[development]
log_level = "debug"
log_to_stdout = true
postgres_host = "db.local"
redis_host = "redis.local"
redis_lock_ttl = "3s"
cache_ttl = "1m"

[development.progression]
sessions_lookback = 4
default_target_reps = 10

[development.progression.increments]
compound = 5.0
isolation = 2.0

[development.deload]
lookback_weeks = 6

[production]
log_level = "info"
logs_path = "/var/log/trainload/trainload"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	path := writeConfig(t, testConfigToml)

	cfg, err := Load("dev", path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.local", cfg.PostgresHost)
	assert.Equal(t, "5432", cfg.PostgresPort)
	assert.Equal(t, "redis.local", cfg.RedisHost)
	assert.Equal(t, 3*time.Second, cfg.RedisLockTTL.Duration)
	assert.Equal(t, time.Minute, cfg.CacheTTL.Duration)

	assert.Equal(t, 4, cfg.Progression.SessionsLookback)
	assert.Equal(t, 10, cfg.Progression.DefaultTargetReps)
	assert.Equal(t, 0.2, cfg.Progression.LargeMissThreshold)
	assert.Equal(t, map[string]float64{"compound": 5.0, "isolation": 2.0}, cfg.Progression.Increments)

	assert.Equal(t, 6, cfg.Deload.LookbackWeeks)
	assert.Equal(t, 3, cfg.Deload.PlateauWindowWeeks)
	assert.Equal(t, 50, cfg.Deload.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.Periodization.MinWeeks)
	assert.Equal(t, 16, cfg.Periodization.MaxWeeks)
}

func TestLoad_ProductionDefaults(t *testing.T) {
	path := writeConfig(t, testConfigToml)

	cfg, err := Load("production", path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/trainload/trainload", cfg.LogsPath)
	assert.Empty(t, cfg.RedisHost)
	assert.Equal(t, 3, cfg.Progression.SessionsLookback)
	assert.Equal(t, 2.5, cfg.Progression.Increments["compound"])
	assert.Equal(t, 1.0, cfg.Progression.Increments["isolation"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := writeConfig(t, testConfigToml)
	_, err = Load("staging", path)
	require.EqualError(t, err, "unknown env: staging")

	path = writeConfig(t, "[production]\nlog_level = \"info\"\n")
	_, err = Load("dev", path)
	require.Error(t, err)
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Progression.SessionsLookback = 1
	cfg.Progression.LargeMissThreshold = 1.5
	cfg.Progression.Increments["compound"] = -2.5
	cfg.Deload.ConfidenceThreshold = 101

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}
