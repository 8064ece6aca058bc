package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/us-matching/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("GRPC_PORT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "")
	t.Setenv("S3_URL_EXPIRY", "")
	t.Setenv("OTEL_TRACES_EXPORTER", "")

	cfg := config.New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "root:root@tcp(localhost:3306)/us?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DB.DSN)
	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.S3.URLExpiry)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestNew_PostgresDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")

	cfg := config.New()

	assert.Equal(t, "host=db port=5432 user=root password=root dbname=us sslmode=disable TimeZone=UTC", cfg.DB.DSN)
}

func TestNew_YAMLOverlayThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
grpc:
  port: "6000"
http:
  allowed_origins: ["https://us.example"]
s3:
  bucket: photos
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "")

	cfg := config.New()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "7000", cfg.GRPC.Port, "env wins over the file")
	assert.Equal(t, "photos", cfg.S3.Bucket)
	assert.Equal(t, []string{"https://us.example"}, cfg.HTTP.AllowedOrigins)
}

func TestNew_ListAndDurationParsing(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("S3_URL_EXPIRY", "2m")
	t.Setenv("DB_SLOW_THRESHOLD", "not-a-duration")

	cfg := config.New()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.S3.URLExpiry)
	assert.Equal(t, 200*time.Millisecond, cfg.DB.SlowThreshold)
}
