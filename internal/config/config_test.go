package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  host: 0.0.0.0
  port: 8080
database:
  host: localhost
  port: 5432
  user: lockerhub
  password: secret
  database: lockerhub_dev
  ssl_mode: disable
redis:
  addr: localhost:6379
jwt:
  secret: 0123456789abcdef0123456789abcdef
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2000, cfg.Request.PersistenceTimeoutMillis)
	assert.Equal(t, 1, cfg.Request.ClaimRetries)
	assert.Equal(t, "0 */15 * * * *", cfg.Scheduler.RebuildStatistics)
	assert.Equal(t, "0 0 1 * * *", cfg.Scheduler.ExpireReservations)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Contains(t, cfg.GetDatabaseConnectionString(), "db.internal:5432")
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	body := validYAML + "\n"
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Setenv("JWT_SECRET", "too-short")
	_, err = Load(writeConfig(t, validYAML))
	assert.ErrorContains(t, err, "at least 32 characters")
}
