// Package main provides the entry point for the transcript pipeline agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "transcript_agent",
	Short: "Audio transcription pipeline",
	Long:  "Transcript pipeline turns audio files into speaker-attributed transcripts through a staged job pipeline with owner confirmation.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
