package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/conversation"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// envKeyReplacer maps llm.timeout to LEDGER_LLM_TIMEOUT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// openStore opens the configured database and brings its schema up to date.
func openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := config.DatabasePath(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Debug("Opened database", "path", dbPath)
	return store, nil
}

func newOracle(logger *slog.Logger) (*llm.Oracle, error) {
	cfg, err := config.LLM(viper.GetViper())
	if err != nil {
		return nil, err
	}
	oracle, err := llm.NewOracle(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Oracle ready", "provider", cfg.Provider, "model", cfg.Model)
	return oracle, nil
}

// newSheetsExporter returns nil when Google Sheets is not configured.
func newSheetsExporter(ctx context.Context, logger *slog.Logger) (conversation.SheetsExporter, error) {
	cfg, err := config.Sheets(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		logger.Info("Google Sheets export disabled")
		return nil, nil
	}

	writer, err := sheets.NewWriter(ctx, *cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets writer: %w", err)
	}
	return writer, nil
}

// newMachine wires the state machine the way both serve and console need it.
func newMachine(ctx context.Context, store *storage.SQLiteStorage, sender conversation.Sender, logger *slog.Logger) (*conversation.Machine, func(), error) {
	oracle, err := newOracle(logger)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := newSheetsExporter(ctx, logger)
	if err != nil {
		oracle.Close()
		return nil, nil, err
	}

	idleTTL, _ := config.Session(viper.GetViper())
	machine := conversation.New(store, oracle, sender, conversation.Config{
		Logger:             logger,
		Sessions:           conversation.NewSessionStore(idleTTL, logger),
		Sheets:             exporter,
		BroadcastAllowList: config.BroadcastAllowList(viper.GetViper()),
	})
	return machine, oracle.Close, nil
}

func requireUser(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	user = strings.TrimSpace(user)
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
