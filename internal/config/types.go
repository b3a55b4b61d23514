package config

import "time"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendSQLite = "sqlite"
)

// Config is the top-level arbor configuration, corresponding to arbor.yaml.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" koanf:"storage"`
	S3       S3Config       `yaml:"s3" koanf:"s3"`
	Redis    RedisConfig    `yaml:"redis" koanf:"redis"`
	SQLite   SQLiteConfig   `yaml:"sqlite" koanf:"sqlite"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Layout   LayoutConfig   `yaml:"layout" koanf:"layout"`
	Sessions SessionsConfig `yaml:"sessions" koanf:"sessions"`
	Log      LogConfig      `yaml:"log" koanf:"log"`
}

// StorageConfig selects where flowchart documents live.
type StorageConfig struct {
	Backend    string `yaml:"backend" koanf:"backend"`
	Dir        string `yaml:"dir" koanf:"dir"`
	DefaultKey string `yaml:"default_key" koanf:"default_key"`
	Prefix     string `yaml:"prefix" koanf:"prefix"`
}

// S3Config holds the bucket settings for the s3 backend.
type S3Config struct {
	Bucket          string `yaml:"bucket" koanf:"bucket"`
	Region          string `yaml:"region" koanf:"region"`
	Endpoint        string `yaml:"endpoint,omitempty" koanf:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" koanf:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" koanf:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style" koanf:"path_style"`
}

// RedisConfig holds the connection for the redis backend and the distributed locker.
type RedisConfig struct {
	Addr       string        `yaml:"addr" koanf:"addr"`
	Password   string        `yaml:"password,omitempty" koanf:"password"`
	DB         int           `yaml:"db" koanf:"db"`
	Prefix     string        `yaml:"prefix" koanf:"prefix"`
	SessionTTL time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
}

// SQLiteConfig holds the database path for the sqlite backend.
type SQLiteConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" koanf:"port"`
	AllowAllOrigins bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty" koanf:"allowed_origins"`
}

// LayoutConfig selects the graph layout engine.
type LayoutConfig struct {
	Engine  string `yaml:"engine" koanf:"engine"`
	DotPath string `yaml:"dot_path" koanf:"dot_path"`
}

// SessionsConfig configures play session persistence.
type SessionsConfig struct {
	// Backend defaults to the storage backend.
	Backend       string   `yaml:"backend,omitempty" koanf:"backend"`
	EncryptionKey string   `yaml:"encryption_key,omitempty" koanf:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys,omitempty" koanf:"fallback_keys"`
	Redact        []string `yaml:"redact,omitempty" koanf:"redact"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
