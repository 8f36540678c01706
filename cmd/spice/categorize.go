package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-statements/internal/cli"
	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/engine"
	"github.com/Veraticus/spice-statements/internal/service"
	"github.com/Veraticus/spice-statements/internal/statement"
)

const defaultUserID = "local"

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize FILE",
		Short: "Categorize the transactions in a bank statement",
		Long: `Parse a bank statement (CSV, Excel, PDF or OFX) and assign a category to
every transaction.

Narrations are first matched against your memory bank of keywords. The rest
are sent to the configured language model in batches of 50 and confident
answers are learned for next time.`,
		Example: `  spice categorize statement.csv
  spice categorize march.xlsx --keywords my-keywords.json
  spice categorize march.pdf --no-ai --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runCategorize,
	}

	cmd.Flags().String("user", defaultUserID, "user whose memory bank is used and updated")
	cmd.Flags().String("keywords", "", "JSON file of extra keywords (category to keyword list)")
	cmd.Flags().String("format", "table", "output format (table, json)")
	cmd.Flags().Bool("no-ai", false, "only use the memory bank, never call the language model")
	cmd.Flags().Bool("transactions", false, "print every transaction in table output")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	keywordsPath, _ := cmd.Flags().GetString("keywords")
	format, _ := cmd.Flags().GetString("format")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	showTransactions, _ := cmd.Flags().GetBool("transactions")

	if format != "table" && format != "json" {
		return common.NewUserError(fmt.Sprintf("unknown output format %q, use table or json", format), common.ErrInvalidInput)
	}

	path := args[0]
	clientKeywords, err := loadKeywordsFile(keywordsPath)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = file.Close() }()

	logger := slog.Default()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), true)
	defer interrupts.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var classifier engine.BatchClassifier
	if !noAI {
		llmClassifier, err := createClassifier(logger)
		if err != nil {
			return err
		}
		defer func() { _ = llmClassifier.Close() }()
		classifier = llmClassifier
	}

	var progress service.ProgressTracker = store
	var bar *cli.ProgressBar
	if format == "table" {
		bar = cli.NewProgressBar(cmd.ErrOrStderr(), store)
		progress = bar
	}

	categorizer := engine.NewWithConfig(classifier, engine.Dependencies{
		Rules:    store,
		Progress: progress,
		Usage:    store,
		Logger:   logger,
	}, engineConfig())
	uploader := engine.NewUploader(statement.NewParser(logger), categorizer, store, store, logger)

	result, err := uploader.Process(ctx, engine.UploadRequest{
		Content:        file,
		ClientKeywords: clientKeywords,
		UserID:         userID,
		FileName:       filepath.Base(path),
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if showTransactions {
		fmt.Fprintln(out, cli.RenderTransactions(result.Transactions))
	}
	fmt.Fprintln(out, cli.RenderSummary(filepath.Base(path), result.Summary))
	if len(result.LearnedKeywords) > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Upload %s saved. Run 'spice keywords list --user %s' to review learned keywords.", result.UploadID, userID)))
	}
	return nil
}
