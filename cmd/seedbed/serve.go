package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts seedbed as an HTTP service exposing POST /generate, POST /validate,
GET /providers, GET|DELETE /sessions/{id}, GET /metrics and GET /openapi.yaml.

Sessions are kept in Redis when SEEDBED_REDIS_ADDR is set, in SEEDBED_SESSION_DIR
when set, and in memory otherwise. SEEDBED_OTEL_ENDPOINT enables trace export.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		var opts cli.ServeOptions
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.RunServe(ctx, cfg, opts); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default SEEDBED_PORT or 8080)")
}
