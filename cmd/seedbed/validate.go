package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [recipe]",
	Short: "Check a recipe without running it",
	Long:  `Parses and plans a recipe, then reports forward or undeclared references, unknown fake providers and unknown template names.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := recipePath(cmd, args)
		if path == "" {
			fmt.Println("Error: a recipe file is required")
			os.Exit(1)
		}
		if err := cli.RunValidate(path, os.Stdout); err != nil {
			if !errors.Is(err, cli.ErrInvalidRecipe) {
				fmt.Printf("Validation failed: %v\n", err)
			}
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("recipe", "", "Recipe file (alternative to the positional argument)")
}
