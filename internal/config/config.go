// Package config loads and finalizes the gaslens service configuration.
// Values resolve in three phases: defaults, then TOML files (base plus
// environment overlay), then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gaslens/gaslens/internal/synthesis"
	"github.com/gaslens/gaslens/internal/tools"
	"github.com/gaslens/gaslens/pkg/database"
	"github.com/gaslens/gaslens/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvGaslensEnv             = "GASLENS_ENV"
	EnvGaslensShutdownTimeout = "GASLENS_SHUTDOWN_TIMEOUT"
	EnvGaslensVersion         = "GASLENS_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "GASLENS_DB_HOST",
	Port:            "GASLENS_DB_PORT",
	Name:            "GASLENS_DB_NAME",
	User:            "GASLENS_DB_USER",
	Password:        "GASLENS_DB_PASSWORD",
	SSLMode:         "GASLENS_DB_SSL_MODE",
	MaxOpenConns:    "GASLENS_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "GASLENS_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "GASLENS_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "GASLENS_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "GASLENS_STORAGE_CONTAINER_NAME",
	ConnectionString: "GASLENS_STORAGE_CONNECTION_STRING",
}

var toolsEnv = &tools.Env{
	BaseURL: "GASLENS_TOOLS_BASE_URL",
	Timeout: "GASLENS_TOOLS_TIMEOUT",
}

var synthesisEnv = &synthesis.Env{
	BaseURL: "GASLENS_SYNTHESIS_BASE_URL",
	APIKey:  "GASLENS_SYNTHESIS_API_KEY",
	Model:   "GASLENS_SYNTHESIS_MODEL",
	Timeout: "GASLENS_SYNTHESIS_TIMEOUT",
}

// Config is the root configuration for the gaslens service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Analysis        AnalysisConfig   `toml:"analysis"`
	Tools           tools.Config     `toml:"tools"`
	Synthesis       synthesis.Config `toml:"synthesis"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the GASLENS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvGaslensEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Analysis.Merge(&overlay.Analysis)
	c.Tools.Merge(&overlay.Tools)
	c.Synthesis.Merge(&overlay.Synthesis)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Analysis.Finalize(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Tools.Finalize(toolsEnv); err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	if err := c.Synthesis.Finalize(synthesisEnv); err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvGaslensShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvGaslensVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvGaslensEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
