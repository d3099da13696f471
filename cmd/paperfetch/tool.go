// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/tools"
)

var toolCmd = &cobra.Command{
	Use:   "tool <name>",
	Short: "Run a tool with JSON parameters and print its result envelope",
	Long: `Tool runs one of the registered tools the way a plugin host would: the
parameters are a JSON object and the output is always a JSON envelope,
{"ok":true,"data":...} or {"ok":false,"error":{"kind":...,"message":...}}.

Run "paperfetch tool --list" to see the available tools.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTool,
}

func init() {
	toolCmd.Flags().String("params", "{}", "tool parameters as a JSON object")
	toolCmd.Flags().Bool("list", false, "list the available tools")
	rootCmd.AddCommand(toolCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	reg := tools.Default(tools.Deps{
		Client:  httpClient(cfg.Search.HTTPConfig),
		Config:  cfg,
		Logger:  &logger,
		Metrics: metrics,
	})

	if list, _ := cmd.Flags().GetBool("list"); list || len(args) == 0 {
		for _, name := range reg.Names() {
			t, _ := reg.Get(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s  %s\n", name, t.Label)
		}
		return nil
	}

	params, _ := cmd.Flags().GetString("params")
	env := reg.Execute(cmd.Context(), args[0], json.RawMessage(strings.TrimSpace(params)))
	fmt.Fprintln(cmd.OutOrStdout(), string(env.JSON()))
	return nil
}
