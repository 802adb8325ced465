// Package query defines the value objects of the read-only query subsystem:
// connection descriptors, execution requests, tabular results, and the safety
// validation policy applied to every query before it reaches an engine.
package query

import "fmt"

// Connection describes how to reach one database. It is constructed fresh per
// request and never cached; the password is excluded from every summary.
type Connection struct {
	Engine     Engine
	Host       string
	Port       int
	Database   string
	Username   string
	Password   string
	ConnString string
	Options    map[string]string
}

// NewConnection applies engine defaults and validates the descriptor.
// Defaults fill only fields left unset and only when no connection string is
// supplied. After defaults, either ConnString or both Host and Database must
// be present.
func NewConnection(c Connection) (Connection, error) {
	if !knownEngines[c.Engine] {
		return Connection{}, fmt.Errorf("unknown engine %q", c.Engine)
	}

	if c.ConnString == "" {
		d := engineDefaults[c.Engine]
		if c.Host == "" {
			c.Host = d.host
		}
		if c.Port == 0 {
			c.Port = d.port
		}
		if c.Database == "" {
			c.Database = d.database
		}
		if c.Username == "" {
			c.Username = d.username
		}
	}

	if c.ConnString == "" && (c.Host == "" || c.Database == "") {
		return Connection{}, fmt.Errorf("either a connection string or host and database must be provided")
	}

	return c, nil
}

// ConnectionSummary is a Connection rendered without credentials.
type ConnectionSummary struct {
	Engine        string `json:"engine"`
	Host          string `json:"host"`
	Port          int    `json:"port,omitempty"`
	Database      string `json:"database"`
	Username      string `json:"username"`
	HasPassword   bool   `json:"has_password"`
	HasConnString bool   `json:"has_connection_string"`
}

// SafeSummary returns the descriptor with all secrets removed. Fields that
// only exist inside the connection string report a placeholder.
func (c Connection) SafeSummary() ConnectionSummary {
	return ConnectionSummary{
		Engine:        c.Engine.String(),
		Host:          orConnString(c.Host),
		Port:          c.Port,
		Database:      orConnString(c.Database),
		Username:      orConnString(c.Username),
		HasPassword:   c.Password != "",
		HasConnString: c.ConnString != "",
	}
}

func orConnString(v string) string {
	if v == "" {
		return "from_connection_string"
	}
	return v
}
