package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "flowchart.json", cfg.Storage.DefaultKey)
	assert.Equal(t, "flowcharts/", cfg.Storage.Prefix)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "auto", cfg.Layout.Engine)
	require.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")

	original := DefaultConfig()
	original.Storage.Backend = BackendRedis
	original.Redis.DB = 3
	original.Redis.SessionTTL = 2 * time.Hour
	original.Sessions.Redact = []string{`(?i)password`, `\d{3}-\d{2}-\d{4}`}
	original.Server.AllowAllOrigins = true

	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: sqlite\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "flowchart.json", cfg.Storage.DefaultKey)
	assert.Equal(t, ".arbor/arbor.db", cfg.SQLite.Path)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBOR_STORAGE_BACKEND", "s3")
	t.Setenv("ARBOR_STORAGE_DEFAULT_KEY", "trees/main.json")
	t.Setenv("ARBOR_S3_ACCESS_KEY_ID", "AKIA")
	t.Setenv("ARBOR_REDIS_DB", "5")
	t.Setenv("ARBOR_REDIS_SESSION_TTL", "30m")
	t.Setenv("REACT_APP_S3_BUCKET_NAME", "legacy-bucket")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "trees/main.json", cfg.Storage.DefaultKey)
	assert.Equal(t, "AKIA", cfg.S3.AccessKeyID)
	assert.Equal(t, "legacy-bucket", cfg.S3.Bucket)
	assert.Equal(t, 5, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Redis.SessionTTL)
	require.NoError(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "storage.backend", envKey("ARBOR_STORAGE_BACKEND"))
	assert.Equal(t, "s3.secret_access_key", envKey("ARBOR_S3_SECRET_ACCESS_KEY"))
	assert.Equal(t, "debug", envKey("ARBOR_DEBUG"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad backend", func(c *Config) { c.Storage.Backend = "dynamo" }, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = BackendS3 }, false},
		{"s3 with bucket", func(c *Config) { c.Storage.Backend = BackendS3; c.S3.Bucket = "b" }, true},
		{"s3 sessions", func(c *Config) { c.Sessions.Backend = BackendS3 }, false},
		{"empty default key", func(c *Config) { c.Storage.DefaultKey = "" }, false},
		{"bad layout", func(c *Config) { c.Layout.Engine = "force" }, false},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, false},
		{"upper level", func(c *Config) { c.Log.Level = "DEBUG" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"negative ttl", func(c *Config) { c.Redis.SessionTTL = -time.Second }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSessionBackend(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendFile, cfg.SessionBackend())

	cfg.Storage.Backend = BackendS3
	assert.Equal(t, BackendFile, cfg.SessionBackend())

	cfg.Sessions.Backend = BackendRedis
	assert.Equal(t, BackendRedis, cfg.SessionBackend())
}
