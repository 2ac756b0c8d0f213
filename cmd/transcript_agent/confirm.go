package main

import (
	"github.com/spf13/cobra"
)

var (
	confirmOwnerID int64
	confirmToken   string
	rejectOwnerID  int64
	rejectToken    string
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a delivered transcript",
	Long:  `Accept the transcript most recently delivered to an owner, closing the job as confirmed.`,
	RunE:  runConfirm,
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject a delivered transcript",
	Long:  `Discard the transcript most recently delivered to an owner, closing the job as rejected.`,
	RunE:  runReject,
}

func init() {
	confirmCmd.Flags().Int64Var(&confirmOwnerID, "owner", 0, "Owner id the job belongs to")
	confirmCmd.Flags().StringVar(&confirmToken, "token", "", "Confirmation token from the delivered result")
	_ = confirmCmd.MarkFlagRequired("owner")
	_ = confirmCmd.MarkFlagRequired("token")

	rejectCmd.Flags().Int64Var(&rejectOwnerID, "owner", 0, "Owner id the job belongs to")
	rejectCmd.Flags().StringVar(&rejectToken, "token", "", "Confirmation token from the delivered result")
	_ = rejectCmd.MarkFlagRequired("owner")
	_ = rejectCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(rejectCmd)
}

func runConfirm(cmd *cobra.Command, _ []string) error {
	in, cleanup, err := newIntake(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return in.HandleConfirmation(cmd.Context(), confirmOwnerID, confirmToken)
}

func runReject(cmd *cobra.Command, _ []string) error {
	in, cleanup, err := newIntake(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	return in.HandleRejection(cmd.Context(), rejectOwnerID, rejectToken)
}
