// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydeck/cli/internal/fetch"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionRelay relayFlags

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and relay version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.Context())
	},
}

// printVersion prints the CLI version and, when reachable, the relay's.
func printVersion(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	url, _ := versionRelay.resolve()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	relayVersion, err := fetch.NewHTTPTransport(url, nil).Version(ctx)
	if err != nil {
		logger.Debug("relay version unavailable", logger.Args("relay", url, "error", err))
		relayVersion = "unknown"
	}

	pterm.Printf("querydeck %s\nrelay     %s (%s)\n", Version, relayVersion, url)
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionRelay.register(versionCmd)
}
