package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "ARBOR_"

// legacyEnv maps the variable names of the browser build to config keys.
var legacyEnv = map[string]string{
	"REACT_APP_S3_BUCKET_NAME": "s3.bucket",
	"REACT_APP_S3_REGION":      "s3.region",
	"REACT_APP_S3_FILE_KEY":    "storage.default_key",
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ARBOR_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("applying %s: %w", name, err)
			}
		}
	}

	// ARBOR_STORAGE_BACKEND -> storage.backend, ARBOR_S3_ACCESS_KEY_ID -> s3.access_key_id.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendRedis:  true,
	BackendS3:     true,
	BackendSQLite: true,
}

var validLayouts = map[string]bool{"auto": true, "graphviz": true, "layered": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("invalid storage.backend %q: must be one of memory, file, redis, s3, sqlite", c.Storage.Backend)
	}
	if c.Sessions.Backend != "" && !validBackends[c.Sessions.Backend] {
		return fmt.Errorf("invalid sessions.backend %q", c.Sessions.Backend)
	}
	if c.Sessions.Backend == BackendS3 {
		return fmt.Errorf("sessions.backend cannot be s3")
	}
	if c.Storage.DefaultKey == "" {
		return fmt.Errorf("storage.default_key is required")
	}
	if c.Storage.Backend == BackendS3 && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required for the s3 backend")
	}
	if !validLayouts[c.Layout.Engine] {
		return fmt.Errorf("invalid layout.engine %q: must be one of auto, graphviz, layered", c.Layout.Engine)
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range")
	}
	if c.Redis.SessionTTL < 0 {
		return fmt.Errorf("redis.session_ttl must be non-negative")
	}
	return nil
}

// SessionBackend returns the backend used for play sessions. S3 documents
// fall back to file sessions since buckets make poor session stores.
func (c *Config) SessionBackend() string {
	if c.Sessions.Backend != "" {
		return c.Sessions.Backend
	}
	if c.Storage.Backend == BackendS3 {
		return BackendFile
	}
	return c.Storage.Backend
}
