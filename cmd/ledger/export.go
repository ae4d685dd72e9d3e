package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's transactions to a file",
		Long: `Export every transaction of a user, sorted by date, as xlsx, csv or json.
The columns are Date, Amount, Category and Currency.`,
		Example: `  ledger export --user 1
  ledger export --user 1 --format csv --out ~/ledger.csv`,
		RunE: runExport,
	}

	cmd.Flags().String("user", "", "user id to export (required)")
	cmd.Flags().StringP("format", "f", string(export.FormatXLSX), "file format (xlsx, csv, json)")
	cmd.Flags().StringP("out", "o", "", "output path (default: <user>_transactions.<format>)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = export.FileName(user, format)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txns, err := store.ListTransactions(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	if len(txns) == 0 {
		return fmt.Errorf("user %s: %w", user, common.ErrNoTransactions)
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Encode(file, format, txns); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(txns), out)))
	return nil
}
