package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "ENVIRONMENT", "ALLOWED_ORIGINS", "FIREBASE_PROJECT_ID", "FIREBASE_API_KEY",
		"FIREBASE_SERVICE_ACCOUNT_JSON", "FIREBASE_SERVICE_ACCOUNT_PATH", "IDENTITY_TOOLKIT_URL",
		"SECURE_TOKEN_URL", "STORAGE_PROVIDER", "STORAGE_BUCKET", "MAX_UPLOAD_BYTES", "MINIO_ENDPOINT",
		"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"STATS_CACHE_TTL_SECONDS", "STATS_TIMEZONE",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: "9000"
  allowed_origins: ["https://support.example.com"]
firebase:
  project_id: disputes-prod
storage:
  bucket: disputes-prod.appspot.com
statistics:
  cache_ttl_seconds: 120
  timezone: Europe/Berlin
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.ServerPort)
	assert.Equal(t, "disputes-prod", cfg.FirebaseProject)
	assert.Equal(t, "disputes-prod.appspot.com", cfg.StorageBucket)
	assert.Equal(t, []string{"https://support.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, StorageProviderGCS, cfg.StorageProvider)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "proj")
	t.Setenv("STORAGE_BUCKET", "bucket")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "UTC", cfg.StatsTimezone)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing project", map[string]string{"STORAGE_BUCKET": "b"}},
		{"missing bucket", map[string]string{"FIREBASE_PROJECT_ID": "p"}},
		{"unknown provider", map[string]string{"FIREBASE_PROJECT_ID": "p", "STORAGE_BUCKET": "b", "STORAGE_PROVIDER": "s3"}},
		{"minio without endpoint", map[string]string{"FIREBASE_PROJECT_ID": "p", "STORAGE_BUCKET": "b", "STORAGE_PROVIDER": "minio"}},
		{"bad timezone", map[string]string{"FIREBASE_PROJECT_ID": "p", "STORAGE_BUCKET": "b", "STATS_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "server: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}
