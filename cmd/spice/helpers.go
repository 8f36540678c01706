package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/config"
	"github.com/Veraticus/spice-statements/internal/engine"
	"github.com/Veraticus/spice-statements/internal/service"
	"github.com/Veraticus/spice-statements/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// engineConfig builds the categorizer configuration from viper settings.
func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.BatchSize = viper.GetInt("engine.batch_size")
	cfg.LearnConfidenceThreshold = viper.GetFloat64("engine.learn_confidence_threshold")
	cfg.MaxConcurrentBatches = viper.GetInt("engine.max_concurrent_batches")
	return cfg
}

// loadKeywordsFile reads a client keyword map (category to keywords) from a JSON file.
func loadKeywordsFile(path string) (map[string][]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var keywords map[string][]string
	if err := json.Unmarshal(data, &keywords); err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("%s must be a JSON object mapping categories to keyword lists", path),
			fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	return keywords, nil
}
