package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var (
	createRepo        string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create [PROMPT...]",
	Short: "Create a new Devin session",
	Long: `Create a new remote Devin session and start tracking it.

The prompt is taken from the positional arguments. The session is persisted
locally and its first status poll is queued immediately; run "devwatch watch"
to drive the polling.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openEnv()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.APIKey == "" {
			return fmt.Errorf("no API key configured; set api_key in the config file")
		}
		if createRepo == "" {
			return fmt.Errorf("--repo is required")
		}
		if !cfg.HasRepo(createRepo) {
			return fmt.Errorf("repo %q is not in the configured repo list", createRepo)
		}

		prompt := strings.Join(args, " ")
		description := createDescription
		if description == "" {
			description = prompt
		}

		client := internal.NewClient(cfg.APIBaseURL, cfg.APIKey, nil)
		created, err := client.CreateSession(context.Background(), prompt)
		if err != nil {
			var apiErr *internal.APIError
			if errors.As(err, &apiErr) {
				internal.LogDebug("create session failed: %s", apiErr.Detail)
				return fmt.Errorf("%s (%s)", apiErr.Message(), apiErr.Detail)
			}
			return fmt.Errorf("failed to create session: %w", err)
		}

		sess := &internal.Session{
			ID:          created.SessionID,
			Repo:        createRepo,
			Description: description,
			Status:      internal.StatusWorking,
			DevinURL:    created.URL,
			CreatedAt:   time.Now(),
		}

		store := internal.NewSessionStore(db)
		if err := store.Create(sess); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		if err := internal.NewScheduler(db).Schedule(sess.ID, 0); err != nil {
			return fmt.Errorf("failed to queue first poll: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created session %s\n%s\n", sess.ID, sess.DevinURL)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createRepo, "repo", "r", "", "Target repository (required)")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Short description shown in notifications (defaults to the prompt)")
	rootCmd.AddCommand(createCmd)
}
