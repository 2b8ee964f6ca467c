package cmd

import (
	"context"
	"fmt"

	"github.com/iksnae/devwatch/internal"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the configured API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.APIKey == "" {
			return fmt.Errorf("no API key configured; set api_key in the config file")
		}

		client := internal.NewClient(cfg.APIBaseURL, cfg.APIKey, nil)
		if !client.VerifyKey(context.Background()) {
			return fmt.Errorf("API key was rejected")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "API key verified.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
