// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"querydeck/cli/internal/bridge"
	"querydeck/cli/internal/config"
	"querydeck/cli/internal/dashboard"
	"querydeck/cli/internal/logging"
	"querydeck/cli/internal/terminal"
	"querydeck/cli/internal/xdg"
)

var (
	dashRelay   relayFlags
	dashFile    string
	dashWatch   bool
	dashOnce    bool
	dashTimeout time.Duration
)

// dashboardCmd shows the widgets of a dashboard definition.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a live dashboard of relay queries",
	Long: `The dashboard command runs every widget's query through the relay and redraws
as results arrive. Without --file, dashboard.yaml in the querydeck config directory
is used if present, otherwise the built-in Wikipedia edits dashboard.

With --watch the definition file is reloaded when it changes; widgets whose
query changed fetch again and never show a result of the old query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file := dashFile
		if file == "" {
			file = cfg.Client.DashboardFile
		}
		if file == "" {
			file = userDashboard()
		}
		if dashWatch && file == "" {
			return errors.New("--watch needs a dashboard file (--file)")
		}

		def := dashboard.Default()
		if file != "" {
			var err error
			if def, err = dashboard.Load(config.AppFs, file); err != nil {
				return err
			}
		}

		client, err := bridge.New(dashRelay.resolve())
		if err != nil {
			return err
		}
		defer client.Close()

		board, err := dashboard.NewBoard(def, client, dashboard.WithLogger(logger))
		if err != nil {
			return err
		}
		defer board.Close()

		if dashOnce || !terminal.IsInteractive() {
			return renderOnce(cmd.Context(), board, client.Describe())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return board.Run(gctx) })
		if dashWatch {
			w, err := dashboard.NewWatcher(file, logger, func() error {
				next, err := dashboard.Load(config.AppFs, file)
				if err != nil {
					return err
				}
				logger.Info("dashboard reloaded", logger.Args("file", file))
				return board.Apply(next)
			})
			if err != nil {
				return err
			}
			g.Go(func() error { return w.Run(gctx) })
		}
		return g.Wait()
	},
}

// userDashboard returns dashboard.yaml in the user's config directory when it exists.
func userDashboard() string {
	dir, err := xdg.ConfigPath()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "dashboard.yaml")
	if _, err := config.AppFs.Stat(p); err != nil {
		return ""
	}
	return p
}

// renderOnce waits for every widget to settle and prints the board once.
func renderOnce(ctx context.Context, board *dashboard.Board, target string) error {
	if dashTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dashTimeout)
		defer cancel()
	}

	stopSpinner := startInlineSpinner(os.Stderr, "loading dashboard from "+target, spinnerFrames, 100*time.Millisecond)
	err := board.WaitSettled(ctx)
	stopSpinner()

	pterm.Println(board.Render())
	if err != nil {
		return fmt.Errorf("dashboard did not finish loading: %w", err)
	}
	return logging.PresentFailure("loading the dashboard", board.RelayFailure())
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashRelay.register(dashboardCmd)
	dashboardCmd.Flags().StringVarP(&dashFile, "file", "f", "", "Dashboard definition (YAML)")
	dashboardCmd.Flags().BoolVarP(&dashWatch, "watch", "w", false, "Reload the definition file when it changes")
	dashboardCmd.Flags().BoolVar(&dashOnce, "once", false, "Print the dashboard once all widgets have loaded and exit")
	dashboardCmd.Flags().DurationVar(&dashTimeout, "timeout", 30*time.Second, "With --once, stop waiting after this long")
}
