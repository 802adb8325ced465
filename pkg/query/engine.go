package query

import (
	"fmt"
	"strings"
)

// Engine identifies a supported database engine.
type Engine string

const (
	// EnginePostgres is PostgreSQL.
	EnginePostgres Engine = "postgres"

	// EngineMySQL is MySQL / MariaDB.
	EngineMySQL Engine = "mysql"

	// EngineSQLServer is Microsoft SQL Server.
	EngineSQLServer Engine = "sqlserver"

	// EngineSQLite is SQLite.
	EngineSQLite Engine = "sqlite"

	// EngineMongoDB is MongoDB.
	EngineMongoDB Engine = "mongodb"
)

// knownEngines are the engine identifiers the request layer accepts.
// Whether an engine can actually execute queries depends on the adapter
// registry, not on this list.
var knownEngines = map[Engine]bool{
	EnginePostgres:  true,
	EngineMySQL:     true,
	EngineSQLServer: true,
	EngineSQLite:    true,
	EngineMongoDB:   true,
}

// ParseEngine converts a string to an Engine, case-insensitively.
func ParseEngine(s string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(s)))
	if !knownEngines[e] {
		return "", fmt.Errorf("unknown engine %q", s)
	}
	return e, nil
}

// String returns the engine identifier.
func (e Engine) String() string {
	return string(e)
}

// engineDefaults holds per-engine connection defaults applied when neither a
// connection string nor an explicit value is supplied.
type engineDefault struct {
	host     string
	port     int
	database string
	username string
}

var engineDefaults = map[Engine]engineDefault{
	EnginePostgres:  {host: "localhost", port: 5432, database: "quality", username: "postgres"},
	EngineMySQL:     {host: "localhost", port: 3306},
	EngineSQLServer: {host: "localhost", port: 1433},
}
