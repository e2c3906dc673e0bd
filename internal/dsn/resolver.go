// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

const schemesHint = "use postgres://, mysql://, user:pass@tcp(host)/db, file:path.db or http://rqlite-node:4001"

// DetectEngine guesses the engine family from the shape of dsn.
func DetectEngine(dsn string) Engine {
	lower := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return EnginePostgres
	case strings.HasPrefix(lower, "mysql://"),
		strings.Contains(lower, "@tcp("),
		strings.Contains(lower, "@unix("):
		return EngineMySQL
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return EngineSQLite
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return EngineRqlite
	}
	return EngineUnknown
}

func resolverFor(dsn string) (Resolver, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	switch DetectEngine(dsn) {
	case EnginePostgres:
		return NewPostgreSQLResolver(), nil
	case EngineMySQL:
		return NewMySQLResolver(), nil
	case EngineSQLite:
		return sqliteResolver{}, nil
	case EngineRqlite:
		return rqliteResolver{}, nil
	}
	return nil, NewParseError(dsn, "unknown database type", schemesHint)
}

// Parse returns dsn normalized for its engine driver.
func Parse(dsn string) (string, error) {
	r, err := resolverFor(dsn)
	if err != nil {
		return "", err
	}
	info, err := r.Parse(dsn)
	if err != nil {
		return "", err
	}
	return r.Normalize(info)
}

// Validate checks dsn without normalizing it.
func Validate(dsn string) error {
	r, err := resolverFor(dsn)
	if err != nil {
		return err
	}
	return r.Validate(dsn)
}

// ParseInfo returns the parsed parts of dsn.
func ParseInfo(dsn string) (*Info, error) {
	r, err := resolverFor(dsn)
	if err != nil {
		return nil, err
	}
	return r.Parse(dsn)
}
