package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the session watcher",
	Long: `Run the watcher daemon that polls tracked sessions.

On startup the watcher wipes the ephemeral notification state, drops stale
wakeups, and reschedules every non-terminal session at the slowest backoff
step. It then processes due wakeups one at a time until interrupted. All
scheduling state is durable, so killing and restarting the watcher never
loses a session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openEnv()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store := internal.NewSessionStore(db)
		sched := internal.NewScheduler(db)
		ephemeral := internal.NewEphemeralStore(db)

		// A new watcher run is a new "browser session" for the ephemeral
		// tier: badge and click targets start from their zero state.
		if err := ephemeral.Reset(); err != nil {
			return err
		}

		if _, err := internal.NewRecoveryManager(store, sched).Resume(); err != nil {
			return fmt.Errorf("recovery failed: %w", err)
		}

		poller := internal.NewPoller(
			store,
			internal.NewClient(cfg.APIBaseURL, cfg.APIKey, nil),
			internal.NewMergeOracle("", nil),
			newNotificationCenter(cfg, db),
			sched,
		)

		internal.LogInfo("watcher running (tick every %s)", watchInterval)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				internal.LogInfo("watcher stopping")
				return nil
			case <-ticker.C:
				due, err := sched.Due()
				if err != nil {
					internal.LogError("failed to read due wakeups: %v", err)
					continue
				}
				for _, w := range due {
					poller.Poll(ctx, w.Token.SessionID, w.Token.Index)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "How often to check for due wakeups")
	rootCmd.AddCommand(watchCmd)
}
