package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-statements/internal/cli"
	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage the memory bank of merchant keywords",
		Long: `View and edit the keywords spice uses to categorize narrations locally.

Keywords are learned automatically from confident classifier answers. Rules
added here are marked as manual and replace any learned category.`,
	}

	cmd.PersistentFlags().String("user", defaultUserID, "user whose memory bank to manage")

	cmd.AddCommand(keywordsListCmd())
	cmd.AddCommand(keywordsAddCmd())
	cmd.AddCommand(keywordsDeleteCmd())
	cmd.AddCommand(categoriesListCmd())

	return cmd
}

func keywordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			format, _ := cmd.Flags().GetString("format")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if format == "json" {
				bank, err := store.GetMemoryBank(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("failed to load memory bank: %w", err)
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(bank.ToMap())
			}

			rules, err := store.GetKeywordRules(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load keywords: %w", err)
			}
			if len(rules) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No keywords stored for "+userID))
				return nil
			}
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Memory bank for %s (%d keywords)", userID, len(rules))))
			fmt.Fprint(out, cli.RenderKeywordRules(rules))
			return nil
		},
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func keywordsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add CATEGORY KEYWORD...",
		Short:   "Add keywords to a category",
		Example: `  spice keywords add "Food Delivery" swiggy zomato`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			category := args[0]

			if !model.IsKnownCategory(category) || model.IsUncategorized(category) {
				return common.NewUserError(
					fmt.Sprintf("unknown category %q; run 'spice keywords categories' to see the list", category),
					common.ErrInvalidInput)
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			for _, keyword := range args[1:] {
				rule := &model.KeywordRule{
					UserID:   userID,
					Keyword:  keyword,
					Category: category,
					Source:   model.SourceManual,
				}
				if err := store.AddKeywordRule(cmd.Context(), rule); err != nil {
					return fmt.Errorf("failed to add keyword %q: %w", keyword, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("%s → %s", model.NormalizeKeyword(keyword), model.CanonicalCategory(category))))
			}
			return nil
		},
	}
}

func keywordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEYWORD...",
		Short: "Remove keywords from the memory bank",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			for _, keyword := range args {
				if err := store.DeleteKeywordRule(cmd.Context(), userID, keyword); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+model.NormalizeKeyword(keyword)))
			}
			return nil
		},
	}
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories keywords can be filed under",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(model.Taxonomy(), "\n"))
		},
	}
}
