package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <start> [end]",
		Short: "Show income and expenses for a date range",
		Long: `Show income and expenses per currency and category for an inclusive
date range. The range is either two dates or one "start - end" argument.`,
		Example: `  ledger report --user 1 2024-01-01 2024-01-31
  ledger report --user 1 "2024-01-01 - 2024-03-31"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runReport,
	}

	cmd.Flags().String("user", "", "user id to report on (required)")

	return cmd
}

// dateRangeArg joins split arguments back into the "start - end" form.
func dateRangeArg(args []string) string {
	if len(args) == 2 {
		return strings.TrimSpace(args[0]) + " - " + strings.TrimSpace(args[1])
	}
	return args[0]
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	start, end, err := filter.ParseDateRange(dateRangeArg(args))
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	r, err := report.NewService(store).Generate(ctx, user, start, end)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	title := fmt.Sprintf("%s Report %s", cli.ChartIcon, dateRangeArg(args))
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(title, report.Render(r)))
	return nil
}
