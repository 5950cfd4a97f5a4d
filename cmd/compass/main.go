// Command compass runs the Career Compass job-application tracker.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "compass",
	Short:         "Career Compass job-application tracker",
	Long:          "Career Compass tracks job applications: a JSON API, a Telegram bot with due-date reminders, and tooling for the record normalization pipeline.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
