// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for querydeck.
// It implements the relay server, one-off queries, the terminal dashboard and
// engine connection management using the Cobra CLI framework.
package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydeck/cli/internal/config"
	"querydeck/cli/internal/logging"
)

var (
	showVersion bool
	logLevel    string

	// cfg and logger are set before any subcommand runs.
	cfg    config.Config
	logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "querydeck",
	Short: "Query relay and terminal dashboard for analytics engines",
	Long: `querydeck relays SQL queries from dashboards to an analytics engine such as
Apache Druid and reports every failure in one consistent shape.

Run 'querydeck serve' to start the relay, then 'querydeck dashboard' or
'querydeck query' to use it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and relay version information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
}

// relayFlags are shared by commands that talk to a running relay.
type relayFlags struct {
	url  string
	grpc string
}

func (f *relayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "relay", "", "Relay base URL (default from config, http://localhost:3001)")
	cmd.Flags().StringVar(&f.grpc, "grpc", "", "Reach the relay over gRPC at this address instead of HTTP")
}

func (f *relayFlags) resolve() (url, grpcAddr string) {
	url, grpcAddr = cfg.Client.RelayURL, cfg.Client.RelayGRPC
	if f.url != "" {
		url = f.url
	}
	if f.grpc != "" {
		grpcAddr = f.grpc
	}
	if url == "" {
		url = "http://localhost:3001"
	}
	return url, grpcAddr
}
