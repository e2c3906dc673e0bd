// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydeck/cli/internal/engine"
)

var infoEngine engineFlags

// engineinfoCmd shows which engine the relay would use, without credentials.
var engineinfoCmd = &cobra.Command{
	Use:   "engineinfo",
	Short: "Show the engine the relay would connect to",
	Long: `The engineinfo command displays the engine kind and target that 'querydeck serve'
would use with the same flags, and where the settings came from. Credentials are
never shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, source, err := resolveEngine(infoEngine)
		if err != nil {
			pterm.Warning.Println(err.Error())
			return nil
		}

		kind := opts.Kind
		if kind == "" {
			kind = engine.KindDruid
		}
		body := fmt.Sprintf("Engine:  %s\nTarget:  %s\nSource:  %s", kind, engineTarget(opts), source)
		if opts.Timeout > 0 {
			body += fmt.Sprintf("\nTimeout: %s", opts.Timeout)
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Query Engine")).
			WithPadding(1).
			Println(body)
		pterm.Println()
		pterm.Println("To save a SQL engine connection, run: querydeck connect")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(engineinfoCmd)
	infoEngine.register(engineinfoCmd)
}
