package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ackCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge notifications",
	Long: `Reset the unread notification badge to zero.

This is the explicit acknowledgement event: the badge counter goes back to
its zero state and the last-active timestamp is recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openEnv()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := newNotificationCenter(cfg, db).AckBadge(); err != nil {
			return fmt.Errorf("failed to acknowledge: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Badge cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ackCmd)
}
