package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-ledger/internal/chat"
	"github.com/Veraticus/spice-ledger/internal/chat/telegram"
	"github.com/Veraticus/spice-ledger/internal/config"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Run the Telegram bot until interrupted.

Updates arrive by long polling (default) or through a webhook served on
telegram.listen. Each user's messages are handled in order; different
users are handled in parallel, at most telegram.workers events at once.`,
		RunE: runServe,
	}

	cmd.Flags().String("mode", "", "update mode: polling or webhook (overrides config)")
	cmd.Flags().Int("workers", 0, "maximum events handled at once (overrides config)")
	_ = viper.BindPFlag("telegram.mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("telegram.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	v := viper.GetViper()

	tgConfig, err := config.Telegram(v)
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bot, err := telegram.New(tgConfig, logger)
	if err != nil {
		return err
	}

	machine, closeOracle, err := newMachine(ctx, store, bot, logger)
	if err != nil {
		return err
	}
	defer closeOracle()

	dispatcher := chat.NewDispatcher(bot, machine, config.Workers(v), logger)
	_, pruneInterval := config.Session(v)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return bot.Serve(gctx)
	})
	g.Go(func() error {
		machine.Sessions().Run(gctx, pruneInterval)
		return nil
	})

	slog.Info("Bot running", "mode", string(tgConfig.Mode), "workers", config.Workers(v))

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}

	stats := dispatcher.Stats()
	slog.Info("Bot stopped", "handled", stats.Handled, "send_failed", stats.SendFailed)
	return nil
}
