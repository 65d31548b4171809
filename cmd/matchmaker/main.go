// Package main provides the entry point for the matchmaker service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "matchmaker",
	Short: "AI-driven candidate sourcing and evaluation service",
	Long:  "Matchmaker generates synthetic candidate profiles on a schedule, evaluates them against open jobs, and drives applications through review via Slack feedback or expiry.",
}

var (
	configPath string
	debugMode  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (values can be overridden by environment variables)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
