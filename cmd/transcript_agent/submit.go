package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	submitOwnerID int64
	submitPath    string
	submitURL     string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an audio source for transcription",
	Long:  `Submit a local audio file or a remote URL as a new transcription job for an owner.`,
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().Int64Var(&submitOwnerID, "owner", 0, "Owner id the job belongs to")
	submitCmd.Flags().StringVar(&submitPath, "path", "", "Path to a local audio file")
	submitCmd.Flags().StringVar(&submitURL, "url", "", "URL of a remote audio file")
	_ = submitCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	if (submitPath == "") == (submitURL == "") {
		return fmt.Errorf("exactly one of --path and --url is required")
	}

	in, cleanup, err := newIntake(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if submitURL != "" {
		return in.HandleNewURL(cmd.Context(), submitOwnerID, strings.TrimSpace(submitURL))
	}
	return in.HandleNewPath(cmd.Context(), submitOwnerID, submitPath)
}
