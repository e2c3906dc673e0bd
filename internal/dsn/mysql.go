// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLResolver accepts driver-native DSNs (user:pass@tcp(host:3306)/db) and
// the same string prefixed with mysql://.
type MySQLResolver struct{}

func NewMySQLResolver() *MySQLResolver {
	return &MySQLResolver{}
}

func (r *MySQLResolver) Parse(dsn string) (*Info, error) {
	native := dsn
	if len(native) >= len("mysql://") && strings.EqualFold(native[:len("mysql://")], "mysql://") {
		native = native[len("mysql://"):]
	}
	cfg, err := mysql.ParseDSN(native)
	if err != nil {
		return nil, NewParseError(dsn, err.Error(), "format should be user:password@tcp(host:3306)/database")
	}
	if cfg.DBName == "" {
		return nil, NewParseError(dsn, "missing database name", "format should be user:password@tcp(host:3306)/database")
	}

	info := &Info{
		Engine:   EngineMySQL,
		User:     cfg.User,
		Password: cfg.Passwd,
		Database: cfg.DBName,
		Params:   map[string]string{},
		Original: dsn,
	}
	for k, v := range cfg.Params {
		info.Params[k] = v
	}
	if host, port, err := net.SplitHostPort(cfg.Addr); err == nil {
		info.Host, info.Port = host, port
	} else {
		info.Host = cfg.Addr
	}
	return info, nil
}

// Normalize renders the driver-native DSN.
func (r *MySQLResolver) Normalize(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	cfg := mysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(info.Host, info.Port)
	if info.Port == "" {
		cfg.Addr = info.Host
	}
	cfg.DBName = info.Database
	if len(info.Params) > 0 {
		cfg.Params = map[string]string{}
		for k, v := range info.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (r *MySQLResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}
