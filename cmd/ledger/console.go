package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/tui"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

func consoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Chat with the bot in the terminal",
		Long: `Chat with the bot locally, without Telegram.

Messages and commands behave exactly as in Telegram. Buttons of the latest
reply are listed under the transcript: Tab selects, Enter presses when the
input is empty. Exported files are written to --download-dir.`,
		Example: `  ledger console --user 1
  ledger console --user 1 --theme catppuccin --download-dir ~/Downloads`,
		RunE: runConsole,
	}

	cmd.Flags().String("user", "1", "user id to chat as")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin)")
	cmd.Flags().String("download-dir", ".", "directory for exported files")

	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	themeName, _ := cmd.Flags().GetString("theme")
	theme, ok := themes.ByName(themeName)
	if !ok {
		return fmt.Errorf("unknown theme %q", themeName)
	}
	downloadDir, _ := cmd.Flags().GetString("download-dir")

	// Logs would tear through the alternate screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if viper.GetString("logging.level") == "debug" {
		logger = slog.Default()
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	console := tui.NewConsole()
	machine, closeOracle, err := newMachine(ctx, store, console, logger)
	if err != nil {
		return err
	}
	defer closeOracle()

	return console.Run(ctx, machine,
		tui.WithUserID(user),
		tui.WithTheme(theme),
		tui.WithDownloadDir(downloadDir),
	)
}
