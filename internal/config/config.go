package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	AI      AIConfig      `toml:"ai"`
	Options OptionsConfig `toml:"options"`
	Export  ExportConfig  `toml:"export"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	MaxConnections     int      `toml:"max_connections"`
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// Addr returns the listen address in host:port form
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds the single admin identity.
// The password can be supplied via REPAIRS_ADMIN_PASSWORD instead of the file.
type AuthConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// StorageConfig selects and configures the record store backend
type StorageConfig struct {
	Backend     string `toml:"backend"` // "sqlite" or "postgres"
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// AIConfig holds text-generation settings for the intake normalizer.
// The API key can be supplied via OPENAI_API_KEY instead of the file.
type AIConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for text-generation calls
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// OptionsConfig controls the distinct-value option cache
type OptionsConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// TTL returns the option cache freshness window
func (o OptionsConfig) TTL() time.Duration {
	return time.Duration(o.TTLSeconds) * time.Second
}

// ExportConfig controls result-set exports
type ExportConfig struct {
	FilenamePrefix string `toml:"filename_prefix"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			MaxConnections:   64,
			ReadTimeoutSecs:  30,
			WriteTimeoutSecs: 60,
		},
		Auth: AuthConfig{
			Username: "admin",
		},
		Storage: StorageConfig{
			Backend:    "sqlite",
			SQLitePath: "repairs.db",
		},
		AI: AIConfig{
			Model:          "gpt-4o-mini",
			Temperature:    0.2,
			TimeoutSeconds: 45,
		},
		Options: OptionsConfig{
			TTLSeconds: 300,
		},
		Export: ExportConfig{
			FilenamePrefix: "수리내역",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the given TOML file, applies defaults for
// anything not set, then applies environment overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPAIRS_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("REPAIRS_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
}

// Validate checks the configuration for values the server cannot run without
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.Username) == "" {
		return fmt.Errorf("auth.username must not be empty")
	}
	if c.Auth.Password == "" {
		return fmt.Errorf("auth.password must be set (file or REPAIRS_ADMIN_PASSWORD)")
	}
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must be set for the sqlite backend")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Options.TTLSeconds <= 0 {
		return fmt.Errorf("options.ttl_seconds must be positive")
	}
	return nil
}
