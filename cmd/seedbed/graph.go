package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [recipe]",
	Short: "Export the recipe as a Mermaid diagram",
	Long:  `Prints a Mermaid flowchart with one node per object block and one edge per reference field.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := recipePath(cmd, args)
		if path == "" {
			fmt.Println("Error: a recipe file is required")
			os.Exit(1)
		}
		var opts cli.GraphOptions
		opts.Overlay, _ = cmd.Flags().GetBool("overlay")
		opts.ContinuationFile, _ = cmd.Flags().GetString("continuation-file")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")

		if err := cli.RunGraph(context.Background(), path, opts, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("recipe", "", "Recipe file (alternative to the positional argument)")
	graphCmd.Flags().Bool("overlay", false, "Dry-run the recipe and mark produced and skipped blocks")
	graphCmd.Flags().String("continuation-file", "", "Session state for the overlay run (implies --overlay)")
	graphCmd.Flags().Int64("seed", 0, "Random seed for the overlay run")
}
