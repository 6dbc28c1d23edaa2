package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleConfig = `
http:
  address: ":8080"
  openapi_file: "docs/openapi.json"

database:
  host: "db.internal"
  port: 5432
  user: "spa"
  password: "secret"
  name: "spadispatch"
  ssl_mode: "disable"

kafka:
  brokers:
    - "broker-1:9092"
    - "broker-2:9092"
  notifications_topic: "dispatch.notifications"
  group_id: "spadispatch-worker"

auth:
  jwt_secret: "from-file"

dispatch:
  default_search_radius_km: 10
  search_cache_ttl_seconds: 30
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))

	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 10.0, cfg.Dispatch.DefaultSearchRadiusKm)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_PASSWORD", "env-password")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))

	assert.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-password", cfg.Database.Password)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "spa",
		Password: "secret",
		Name:     "spadispatch",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db.internal port=5432 user=spa password=secret dbname=spadispatch sslmode=disable", d.DSN())
}
