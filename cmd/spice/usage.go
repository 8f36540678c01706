package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-statements/internal/cli"
)

func usageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show language model usage and estimated cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			format, _ := cmd.Flags().GetString("format")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			summary, err := store.GetUsageSummary(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load usage: %w", err)
			}

			if format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderUsage(summary))
			return nil
		},
	}

	cmd.Flags().String("user", defaultUserID, "user to report on")
	cmd.Flags().String("format", "table", "output format (table, json)")

	return cmd
}
