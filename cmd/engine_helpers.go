// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"querydeck/cli/internal/dsn"
	"querydeck/cli/internal/engine"
	"querydeck/cli/internal/keychain"
	"querydeck/cli/internal/logging"
)

// Where the engine settings came from.
const (
	sourceFlags    = "command line flags"
	sourceConfig   = "configuration"
	sourceKeychain = "OS keychain"
)

// engineFlags override the configured engine for one command.
type engineFlags struct {
	kind string
	url  string
	dsn  string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "engine", "", "Engine: druid, postgres, mysql, sqlite or rqlite (default from config, druid)")
	cmd.Flags().StringVar(&f.url, "downstream-url", "", "Druid SQL endpoint")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Connection string for the SQL engines")
}

// resolveEngine merges flags, configuration and the keychain into engine
// options. The keychain is only consulted for SQL engines that have no DSN
// from flags or configuration.
func resolveEngine(f engineFlags) (engine.Options, string, error) {
	opts := engine.Options{
		Kind:    engine.Kind(cfg.Engine.Kind),
		URL:     cfg.Engine.URL,
		DSN:     cfg.Engine.DSN,
		Timeout: cfg.Engine.Timeout,
	}
	source := sourceConfig
	if f.kind != "" {
		opts.Kind = engine.Kind(strings.ToLower(f.kind))
		source = sourceFlags
	}
	if f.url != "" {
		opts.URL = f.url
		source = sourceFlags
	}
	if f.dsn != "" {
		opts.DSN = f.dsn
		source = sourceFlags
	}

	if opts.Kind == engine.KindDruid || opts.Kind == "" || opts.DSN != "" {
		return opts, source, nil
	}

	km, err := keychain.GetManager()
	if err != nil {
		return opts, source, errors.New("no DSN configured and secure storage is not available; set QUERYDECK_ENGINE_DSN or pass --dsn")
	}
	kind, saved, err := km.LoadEngine()
	if errors.Is(err, keychain.ErrNotFound) {
		return opts, source, errors.New("no DSN configured; run 'querydeck connect' or pass --dsn")
	}
	if err != nil {
		return opts, source, err
	}
	if kind != "" && kind != string(opts.Kind) {
		return opts, source, fmt.Errorf("the saved connection is for %s, not %s; run 'querydeck connect' again or pass --dsn", kind, opts.Kind)
	}
	opts.DSN = saved
	return opts, sourceKeychain, nil
}

// engineTarget describes where opts points without credentials.
func engineTarget(opts engine.Options) string {
	if opts.Kind == engine.KindDruid || opts.Kind == "" {
		return opts.URL
	}
	if info, err := dsn.ParseInfo(opts.DSN); err == nil {
		return info.Target()
	}
	return logging.Mask(opts.DSN)
}
