package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-statements/internal/certs"
	"github.com/Veraticus/spice-statements/internal/config"
	"github.com/Veraticus/spice-statements/internal/engine"
	"github.com/Veraticus/spice-statements/internal/server"
	"github.com/Veraticus/spice-statements/internal/statement"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the statement upload API",
		Long: `Start an HTTP server that accepts statement uploads and returns
categorized transactions.

Every /api request must carry an X-User-ID header naming the user whose
memory bank is used.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "address to listen on")
	cmd.Flags().Bool("no-ai", false, "only use the memory bank, never call the language model")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	noAI, _ := cmd.Flags().GetBool("no-ai")
	ctx := cmd.Context()
	logger := slog.Default()

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

	categorizer := engine.NewWithConfig(classifier, engine.Dependencies{
		Rules:    store,
		Progress: store,
		Usage:    store,
		Logger:   logger,
	}, engineConfig())
	uploader := engine.NewUploader(statement.NewParser(logger), categorizer, store, store, logger)

	var tlsConfig *tls.Config
	if viper.GetBool("server.tls") {
		tlsConfig, err = certs.NewStore(config.ExpandPath(viper.GetString("server.cert_dir"))).TLSConfig()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
	}

	srv := server.New(server.Config{
		Addr:               viper.GetString("server.addr"),
		BodyLimit:          viper.GetString("server.body_limit"),
		RateLimitPerMinute: viper.GetInt("server.rate_limit_per_minute"),
		RateLimitBurst:     viper.GetInt("server.rate_limit_burst"),
		ShutdownTimeout:    viper.GetDuration("server.shutdown_timeout"),
		TLS:                tlsConfig,
	}, uploader, store, logger)

	return srv.Run(ctx)
}
