package config

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "arbor.yaml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendFile,
			Dir:        ".arbor",
			DefaultKey: "flowchart.json",
			Prefix:     "flowcharts/",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "arbor:",
		},
		SQLite: SQLiteConfig{
			Path: ".arbor/arbor.db",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Layout: LayoutConfig{
			Engine:  "auto",
			DotPath: "dot",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
