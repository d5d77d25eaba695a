package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Inspect and reset generation sessions",
	Long:    `Lists, shows or deletes the sessions kept in the configured storage (SEEDBED_REDIS_ADDR, SEEDBED_SESSION_DIR or memory).`,
}

var sessionListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored sessions",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListSessions(context.Background(), loadConfig(), os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ShowSession(context.Background(), loadConfig(), args[0], os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a session so its just_once blocks run again",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.DeleteSession(context.Background(), loadConfig(), args[0], os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionRmCmd)
}
