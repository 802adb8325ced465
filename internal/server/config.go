package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alaiia/mcp-dbquery/pkg/toolkits/dbquery"
)

// Config holds the complete server configuration.
type Config struct {
	Server ServerConfig   `yaml:"server"`
	Audit  AuditConfig    `yaml:"audit"`
	Query  dbquery.Config `yaml:"query"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
}

// AuditConfig configures audit logging.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-dbquery"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = Version
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport %q (expected stdio or http)", c.Server.Transport)
	}
	if c.Query.MaxTimeoutSeconds < 0 {
		return fmt.Errorf("query.max_timeout_seconds cannot be negative")
	}
	if c.Query.MaxRowCeiling < 0 {
		return fmt.Errorf("query.max_row_ceiling cannot be negative")
	}
	return nil
}
