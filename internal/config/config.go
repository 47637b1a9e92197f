// Package config loads tablekit's YAML configuration file and applies
// environment overrides and defaults.
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/tablekit/tablekit/internal/errs"
)

// Config is the root configuration document.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// DatabaseConfig selects the backend and connection settings.
type DatabaseConfig struct {
	// Driver is "postgres" or "mysql".
	Driver string `yaml:"driver"`

	// DSN is the full connection string.
	DSN string `yaml:"dsn"`

	// Schema is the namespace reflection targets. Empty means the backend
	// default ("public" for postgres, the connected database for mysql).
	Schema string `yaml:"schema"`

	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotConfig configures schema snapshot archival to object storage.
// Disabled unless an endpoint is set.
type SnapshotConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Prefix namespaces snapshot object keys within the bucket.
	Prefix string `yaml:"prefix"`
}

// Enabled reports whether snapshot archival is configured.
func (c SnapshotConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    30 * time.Second,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			Prefix: "schemas",
		},
	}
}

// Load reads path, layering the file over Default and environment
// overrides over the file. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindParse, "cannot parse config file", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers TABLEKIT_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("TABLEKIT_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("TABLEKIT_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("TABLEKIT_SCHEMA"); v != "" {
		c.Database.Schema = v
	}
	if v := os.Getenv("TABLEKIT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TABLEKIT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TABLEKIT_SNAPSHOT_ACCESS_KEY"); v != "" {
		c.Snapshot.AccessKey = v
	}
	if v := os.Getenv("TABLEKIT_SNAPSHOT_SECRET_KEY"); v != "" {
		c.Snapshot.SecretKey = v
	}
}

// Validate checks the fields every command needs before connecting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errs.New(errs.ErrKindInvalidInput, "database.dsn is required (or set TABLEKIT_DSN)")
	}
	if c.Snapshot.Enabled() && c.Snapshot.Bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "snapshot.bucket is required when snapshot.endpoint is set")
	}
	return nil
}
