// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net/url"
	"strings"
)

// sqliteResolver accepts file: URIs and bare paths ending in .db or .sqlite.
type sqliteResolver struct{}

func (sqliteResolver) Parse(dsn string) (*Info, error) {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	path, query, _ := strings.Cut(path, "?")
	if path == "" {
		return nil, NewParseError(dsn, "missing database file", "format should be file:path/to/wiki.db")
	}
	info := &Info{Engine: EngineSQLite, Database: path, Params: map[string]string{}, Original: dsn}
	if values, err := url.ParseQuery(query); err == nil {
		for k, v := range values {
			info.Params[k] = v[0]
		}
	}
	return info, nil
}

func (sqliteResolver) Normalize(info *Info) (string, error) {
	if strings.HasPrefix(info.Original, "file:") {
		return info.Original, nil
	}
	return "file:" + info.Original, nil
}

func (r sqliteResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}

// rqliteResolver accepts node URLs with optional user and password parameters.
type rqliteResolver struct{}

func (rqliteResolver) Parse(dsn string) (*Info, error) {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil || u.Host == "" {
		return nil, NewParseError(dsn, "invalid node URL", "format should be http://host:4001?user=name&password=secret")
	}
	info := &Info{
		Engine:   EngineRqlite,
		Host:     u.Hostname(),
		Port:     u.Port(),
		User:     u.Query().Get("user"),
		Password: u.Query().Get("password"),
		Params:   map[string]string{},
		Original: dsn,
	}
	if info.Port == "" {
		info.Port = "4001"
	}
	return info, nil
}

func (rqliteResolver) Normalize(info *Info) (string, error) {
	return strings.TrimSpace(info.Original), nil
}

func (r rqliteResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}
