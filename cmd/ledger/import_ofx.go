package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ofx"
)

const importBatchSize = 100

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import bank statements in OFX or QFX format into a user's ledger.

Amounts are rounded to whole units of the statement currency (half away from
zero) and every entry starts as Uncategorized. Entries repeated across files
(same account and FITID) are imported once.`,
		Example: `  # Import one statement
  ledger import-ofx --user 1 ~/Downloads/checking_jan.qfx

  # Preview a batch without saving
  ledger import-ofx --user 1 --dry-run ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().String("user", "", "user id to import for (required)")
	cmd.Flags().String("currency", "", "currency for statements without CURDEF")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().BoolP("verbose", "v", false, "Show every parsed entry")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	currency, _ := cmd.Flags().GetString("currency")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Import", "Batches inserted so far are kept.")

	parser := ofx.NewParser(strings.ToUpper(currency))
	var entries []ofx.Entry
	for _, path := range files {
		fileEntries, err := parseOFXFile(ctx, parser, user, path)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}
		slog.Info("Parsed file", "file", filepath.Base(path), "entries", len(fileEntries))
		entries = append(entries, fileEntries...)
	}

	unique := ofx.Dedupe(entries)
	if len(unique) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found"))
		return nil
	}

	printImportSummary(out, unique, len(entries)-len(unique), verbose)

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo("Dry run complete - no data saved"))
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := store.EnsureUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user, err)
	}

	txns := ofx.Transactions(unique)
	bar := cli.NewProgressBar(out, len(txns), "Importing transactions...")
	inserted := 0
	for start := 0; start < len(txns); start += importBatchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+importBatchSize, len(txns))
		n, err := store.InsertTransactions(ctx, txns[start:end])
		if err != nil {
			return fmt.Errorf("failed to insert transactions: %w", err)
		}
		inserted += n
		if err := bar.Add(end - start); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	if interrupts.WasInterrupted() {
		return fmt.Errorf("import interrupted after %d of %d transactions", inserted, len(txns))
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions for user %s", inserted, user)))
	return nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, user, path string) ([]ofx.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return parser.ParseFile(ctx, user, file)
}

func printImportSummary(w io.Writer, entries []ofx.Entry, duplicates int, verbose bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Transaction.Date.Before(entries[j].Transaction.Date)
	})

	totals := make(map[string]int64)
	var currencies []string
	for _, e := range entries {
		cur := e.Transaction.Currency
		if _, ok := totals[cur]; !ok {
			currencies = append(currencies, cur)
		}
		totals[cur] += e.Transaction.Amount
	}
	sort.Strings(currencies)

	var b strings.Builder
	fmt.Fprintf(&b, "Entries: %d\n", len(entries))
	if duplicates > 0 {
		fmt.Fprintf(&b, "Duplicates skipped: %d\n", duplicates)
	}
	fmt.Fprintf(&b, "Date range: %s to %s\n",
		entries[0].Transaction.DateString(), entries[len(entries)-1].Transaction.DateString())
	for _, cur := range currencies {
		fmt.Fprintf(&b, "Net %s: %s\n", cur, cli.FormatAmount(totals[cur], cur))
	}
	fmt.Fprintln(w, cli.RenderBox("OFX Import", strings.TrimRight(b.String(), "\n")))

	if !verbose {
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %-30s %s\n",
			e.Transaction.DateString(), truncate(e.Payee, 30),
			cli.FormatAmount(e.Transaction.Amount, e.Transaction.Currency))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
