// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn recognizes and normalizes engine connection strings.
package dsn

import "fmt"

// Engine is the engine family a connection string belongs to.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineSQLite   Engine = "sqlite"
	EngineRqlite   Engine = "rqlite"
	EngineUnknown  Engine = "unknown"
)

// Info holds the parts of a connection string worth showing or checking.
type Info struct {
	Engine   Engine
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// Target renders the connection target without credentials, e.g.
// "postgres://localhost:5432/wiki".
func (i *Info) Target() string {
	switch i.Engine {
	case EngineSQLite:
		return "sqlite:" + i.Database
	case EngineRqlite:
		return "rqlite://" + i.Host + ":" + i.Port
	}
	return fmt.Sprintf("%s://%s:%s/%s", i.Engine, i.Host, i.Port, i.Database)
}

// Resolver parses and normalizes connection strings of one engine family.
type Resolver interface {
	Parse(dsn string) (*Info, error)
	// Normalize renders info in the form the engine driver expects.
	Normalize(info *Info) (string, error)
	Validate(dsn string) error
}

// ParseError describes a connection string that could not be understood.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{DSN: dsn, Reason: reason, Hint: hint}
}
