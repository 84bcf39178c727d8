package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "uploads", cfg.UploadsDir)
	assert.Contains(t, cfg.DSN, "tcp(127.0.0.1:3306)/summate")
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
port: 8080
env: Production
jwt_secret: s3cret
database:
  host: db.internal
  name: summaries
redis:
  host: cache.internal
  db: 2
ai:
  provider:
    type: Anthropic
    api_key: key
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Contains(t, cfg.DSN, "db.internal:3306")
	assert.Contains(t, cfg.DSN, "/summaries?")
	assert.Equal(t, "redis://cache.internal:6379/2", cfg.RedisURL)
	assert.Equal(t, "Anthropic", cfg.AI.Provider.Type)
}

func TestLoadExplicitURLs(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
dsn: "user:pw@tcp(1.2.3.4:3306)/db?parseTime=true"
redis_url: "rediss://:pw@cache:6380/1"
`))
	require.NoError(t, err)

	assert.Equal(t, "user:pw@tcp(1.2.3.4:3306)/db?parseTime=true", cfg.DSN)
	assert.Equal(t, "rediss://:pw@cache:6380/1", cfg.RedisURL)
}

func TestLoadInvalidPort(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 99999\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
