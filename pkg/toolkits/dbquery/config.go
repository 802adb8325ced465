package dbquery

import "time"

const (
	// defaultMaxTimeoutSeconds caps the statement timeout a request may ask
	// for.
	defaultMaxTimeoutSeconds = 300

	// defaultMaxRowCeiling caps the row limit a request may ask for.
	defaultMaxRowCeiling = 10000
)

// Config holds toolkit configuration. The timeout ceiling is expressed in
// seconds to keep the yaml plain.
type Config struct {
	MaxTimeoutSeconds int `yaml:"max_timeout_seconds"`
	MaxRowCeiling     int `yaml:"max_row_ceiling"`

	// Defaults overrides the built-in per-engine connection defaults,
	// keyed by engine identifier.
	Defaults map[string]ConnectionDefaults `yaml:"defaults"`
}

// ConnectionDefaults fills connection fields a request leaves unset. Like
// the built-in defaults, they are ignored when the request carries a
// connection string.
type ConnectionDefaults struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
}

// MaxTimeout returns the timeout ceiling as a duration.
func (c Config) MaxTimeout() time.Duration {
	return time.Duration(c.MaxTimeoutSeconds) * time.Second
}

// applyDefaults applies default values to the configuration.
func applyDefaults(cfg Config) Config {
	if cfg.MaxTimeoutSeconds == 0 {
		cfg.MaxTimeoutSeconds = defaultMaxTimeoutSeconds
	}
	if cfg.MaxRowCeiling == 0 {
		cfg.MaxRowCeiling = defaultMaxRowCeiling
	}
	return cfg
}
