// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydeck/cli/internal/bridge"
	"querydeck/cli/internal/dashboard"
	qerrors "querydeck/cli/internal/errors"
	"querydeck/cli/internal/fetch"
	"querydeck/cli/internal/logging"
)

var (
	queryRelay   relayFlags
	queryRaw     bool
	queryTimeout time.Duration
)

// queryCmd sends one query through a running relay and prints the rows.
var queryCmd = &cobra.Command{
	Use:   "query [SQL]",
	Short: "Run one query through the relay",
	Long: `The query command sends SQL to a running relay and prints the rows as a table.
With --raw the rows are printed as JSON. Without an argument the query is read
from stdin.

Example: querydeck query "SELECT * FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = 'druid'"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql, err := querySource(args)
		if err != nil {
			return err
		}

		client, err := bridge.New(queryRelay.resolve())
		if err != nil {
			return err
		}
		defer client.Close()

		ctx := cmd.Context()
		if queryTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, queryTimeout)
			defer cancel()
		}

		q := fetch.Use[map[string]any](client, sql)
		defer q.Close()

		stopSpinner := startInlineSpinner(os.Stderr, "querying "+client.Describe(), spinnerFrames, 100*time.Millisecond)
		state, err := q.Wait(ctx)
		stopSpinner()
		if err != nil {
			return fmt.Errorf("query did not finish: %w", err)
		}

		switch state.Status() {
		case fetch.Idle:
			return errors.New(qerrors.MissingQuery.DefaultMessage())
		case fetch.Failed:
			return logging.PresentFailure("querying the relay", state.Failure())
		}
		return printRows(state.Rows())
	},
}

func querySource(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printRows(rows []map[string]any) error {
	if queryRaw {
		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	if len(rows) == 0 {
		pterm.Info.Println("No rows")
		return nil
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(dashboard.TableData(rows)).Render(); err != nil {
		return err
	}
	pterm.Printf("%d row(s)\n", len(rows))
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryRelay.register(queryCmd)
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "Print the rows as JSON")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 0, "Give up waiting after this long (0 waits forever)")
}
