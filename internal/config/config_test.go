package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
api:
  environment: production
  port: "8080"
  base_url: localhost:8080
  allowed_cors_domains:
    - http://localhost:5173
  jwt_signing_key: secret
gin:
  mode: release
postgres:
  host: localhost
  port: "5432"
  user: treasury
  password: treasury
  db: treasury
kafka:
  brokers: []
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "production", conf.API.Environment)
	assert.Equal(t, "8080", conf.API.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, "release", conf.Gin.Mode)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, "disable", conf.Postgres.SSLMode)
	assert.Equal(t, "treasury.audit", conf.Kafka.Topic)
	assert.Empty(t, conf.Kafka.Brokers)
	assert.Contains(t, conf.Postgres.DSN(), "dbname=treasury")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_POSTGRES_HOST", "db.internal")
	t.Setenv("APP_LOG_LEVEL", "debug")

	conf, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", conf.Postgres.Host)
	assert.Equal(t, "debug", conf.Log.Level)
}

func TestLoad_MissingSigningKey(t *testing.T) {
	_, err := Load(writeConfig(t, "api:\n  port: \"3000\"\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
