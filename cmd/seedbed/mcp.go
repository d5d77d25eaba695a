package main

import (
	"context"
	"log"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts seedbed as an MCP Server exposing the generate_records,
validate_recipe and list_providers tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		var opts cli.ServeOptions
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		// Keep stray log output off the JSON-RPC stream.
		log.SetOutput(os.Stderr)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.RunMCP(ctx, cfg, opts); err != nil {
			log.Printf("MCP Server execution failed: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 0, "Port for the sse transport (default SEEDBED_PORT or 8080)")
}
