package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/seedbed"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Seedbed",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seedbed version %s\n", strings.TrimSpace(seedbed.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
