package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fleetops-sim",
	Short: "Warehouse robot fleet simulation toolkit",
	Long:  "FleetOps-Sim runs a multi-vendor warehouse robot fleet simulator with conflict detection and a live operations API.",
}

// Execute runs the root command.
func Execute() {
	// Optional .env for endpoint and table overrides; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
