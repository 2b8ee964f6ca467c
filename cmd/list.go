package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	workingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	finishedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked sessions",
	Long:  `List all tracked sessions, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openEnv()
		if err != nil {
			return err
		}
		defer db.Close()

		sessions, err := internal.NewSessionStore(db).List()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions tracked yet. Start one with: devwatch create")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(fmt.Sprintf("Sessions (%d)", len(sessions))))

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tREPO\tSTATUS\tPR\tCREATED")
		for _, sess := range sessions {
			pr := "-"
			if sess.PRURL != "" {
				pr = sess.PRURL
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				idStyle.Render(sess.ID),
				sess.Repo,
				statusStyle(sess.Status).Render(string(sess.Status)),
				pr,
				dateStyle.Render(sess.CreatedAt.Format(time.RFC3339)),
			)
		}
		return w.Flush()
	},
}

func statusStyle(status internal.Status) lipgloss.Style {
	switch status {
	case internal.StatusFinished:
		return finishedStyle
	case internal.StatusWorking:
		return workingStyle
	}
	return failedStyle
}

func init() {
	rootCmd.AddCommand(listCmd)
}
