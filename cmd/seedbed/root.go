package main

import (
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seedbed",
	Short: "Seedbed generates synthetic relational records from recipes",
	Long: `Seedbed reads a recipe, an ordered YAML list of object blocks, and produces
an internally consistent batch of records with fixed, templated and random
values plus references between them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// loadConfig reads the SEEDBED_* environment or exits.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// recipePath returns the recipe path from the first argument or --recipe.
func recipePath(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	path, _ := cmd.Flags().GetString("recipe")
	return path
}
