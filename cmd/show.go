package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one tracked session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openEnv()
		if err != nil {
			return err
		}
		defer db.Close()

		sess, err := internal.NewSessionStore(db).Get(args[0])
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				return fmt.Errorf("no session with id %q", args[0])
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:          %s\n", sess.ID)
		fmt.Fprintf(out, "Repo:        %s\n", sess.Repo)
		fmt.Fprintf(out, "Description: %s\n", sess.Description)
		fmt.Fprintf(out, "Status:      %s\n", statusStyle(sess.Status).Render(string(sess.Status)))
		fmt.Fprintf(out, "Devin URL:   %s\n", sess.DevinURL)
		if sess.PRURL != "" {
			fmt.Fprintf(out, "PR URL:      %s\n", sess.PRURL)
		}
		fmt.Fprintf(out, "Created:     %s\n", sess.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
