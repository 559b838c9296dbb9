// Package main provides the entry point for the job pipeline CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pipeline_agent",
	Short: "Job application pipeline",
	Long:  "Job application pipeline discovers postings from job boards, scores them against a candidate profile, and generates tailored resume PDFs for the best matches.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
